package offer

import (
	"errors"
	"fmt"
	"strings"
)

// EResult is a Steam result code.
type EResult int

var eresultNames = map[EResult]string{
	1:  "OK",
	2:  "Fail",
	3:  "NoConnection",
	5:  "InvalidPassword",
	6:  "LoggedInElsewhere",
	7:  "InvalidProtocolVer",
	8:  "InvalidParam",
	9:  "FileNotFound",
	10: "Busy",
	11: "InvalidState",
	12: "InvalidName",
	13: "InvalidEmail",
	14: "DuplicateName",
	15: "AccessDenied",
	16: "Timeout",
	17: "Banned",
	18: "AccountNotFound",
	19: "InvalidSteamID",
	20: "ServiceUnavailable",
	21: "NotLoggedOn",
	22: "Pending",
	23: "EncryptionFailure",
	24: "InsufficientPrivilege",
	25: "LimitExceeded",
	26: "Revoked",
	27: "Expired",
	28: "AlreadyRedeemed",
	29: "DuplicateRequest",
	30: "AlreadyOwned",
	31: "IPNotFound",
	32: "PersistFailed",
	33: "LockingFailed",
	34: "LogonSessionReplaced",
	35: "ConnectFailed",
	36: "HandshakeFailed",
	37: "IOFailure",
	38: "RemoteDisconnect",
	39: "ShoppingCartNotFound",
	40: "Blocked",
	41: "Ignored",
	42: "NoMatch",
	43: "AccountDisabled",
	44: "ServiceReadOnly",
	45: "AccountNotFeatured",
	46: "AdministratorOK",
	47: "ContentVersion",
	48: "TryAnotherCM",
	49: "PasswordRequiredToKickSession",
	50: "AlreadyLoggedInElsewhere",
	51: "Suspended",
	52: "Cancelled",
	53: "DataCorruption",
	54: "DiskFull",
	55: "RemoteCallFailed",
	84: "RateLimitExceeded",
}

func (r EResult) String() string {
	if name, ok := eresultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("EResult(%d)", int(r))
}

// SendError is a failure reported by the transport while sending an offer.
// EResult is zero when Steam returned no result code.
type SendError struct {
	EResult EResult
	Message string
}

func (e *SendError) Error() string {
	if e.EResult != 0 {
		return fmt.Sprintf("%s (%s)", e.Message, e.EResult)
	}
	return e.Message
}

const (
	replyItemServer = "Team Fortress 2's item server may be down or Steam may be experiencing temporary connectivity issues"
	replyBigOffer   = "An error occurred while sending your trade offer, this is most likely because I've recently accepted a big offer"
)

type messageRule struct {
	contains string
	reply    string
	// passthrough returns the error itself instead of a canned reply.
	passthrough bool
}

// Checked in order before result codes.
var messageRules = []messageRule{
	{contains: "We were unable to contact the game's item server", reply: replyItemServer},
	{contains: "can only be sent to friends", passthrough: true},
	{contains: "maximum number of items allowed in your Team Fortress 2 inventory", reply: "I don't have space for more items in my inventory"},
}

var eresultReplies = map[EResult]string{
	10: replyBigOffer,
	15: "I don't, or you don't, have space for more items",
	16: replyBigOffer,
	20: replyItemServer,
}

// ClassifySendError maps a send failure onto the chat reply for the partner.
// Errors that match no rule, and friends-only failures, are returned as is.
func ClassifySendError(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	msg := err.Error()
	var se *SendError
	if errors.As(err, &se) {
		msg = se.Message
	}
	for _, rule := range messageRules {
		if strings.Contains(msg, rule.contains) {
			if rule.passthrough {
				return "", err
			}
			return rule.reply, nil
		}
	}
	if se != nil && se.EResult != 0 {
		if reply, ok := eresultReplies[se.EResult]; ok {
			return reply, nil
		}
		return fmt.Sprintf("An error occurred while sending the offer (%s)", se.EResult), nil
	}
	return "", err
}

package offer

import (
	"errors"
	"testing"
	"time"

	"tf2automatic/internal/currency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftItemsAreUnique(t *testing.T) {
	d := NewDraft("", "76561198000000000", true)
	assert.True(t, d.AddMyItem(NewItem("1")))
	assert.False(t, d.AddMyItem(NewItem("1")))
	assert.False(t, d.AddMyItem(NewItem("")))
	assert.True(t, d.AddTheirItem(NewItem("1")))
	assert.Len(t, d.ItemsToGive(), 1)
	assert.Len(t, d.ItemsToReceive(), 1)
	assert.Equal(t, 440, d.ItemsToGive()[0].AppID)
	assert.Equal(t, "2", d.ItemsToGive()[0].ContextID)
}

func TestDraftSummarize(t *testing.T) {
	d := NewInbound("9", "p", "", []Item{
		NewItem("1").WithSKU("263;6"),
		NewItem("2").WithSKU("263;6"),
	}, []Item{NewItem("3").WithSKU(currency.RefinedSKU)})

	assert.Equal(t, "Asked: 2 x 263;6\nOffered: 1 x 5002;6", d.Summarize())
	assert.Equal(t, StateActive, d.State())
}

func TestDictDiff(t *testing.T) {
	dict := NewDict()
	dict.Add("263;6", 2, true)
	dict.Add(currency.RefinedSKU, 3, false)
	dict.Add(currency.RefinedSKU, 1, true)

	assert.Equal(t, Diff{"263;6": -2, currency.RefinedSKU: 2}, dict.Diff())
	assert.Equal(t, []string{"263;6", currency.RefinedSKU}, dict.Diff().SKUs())
}

func TestMetaApplyAndHandled(t *testing.T) {
	d := NewDraft("1", "p", true)
	assert.False(t, HandledByUs(d))

	meta := Meta{Dict: NewDict(), Diff: Diff{"263;6": 1}}
	meta.Apply(d)
	MarkHandled(d, time.UnixMilli(1700000000000))

	assert.True(t, HandledByUs(d))
	assert.Equal(t, Diff{"263;6": 1}, DiffOf(d))
	ts, ok := d.Data(DataHandleTimestamp)
	require.True(t, ok)
	assert.Equal(t, int64(1700000000000), ts)
	_, ok = d.Data(DataValue)
	assert.False(t, ok)
}

func TestNewValueRates(t *testing.T) {
	v := NewValue(currency.Money{Keys: 1}, currency.Money{Scrap: 5}, currency.KeyPrices{
		Buy: currency.Money{Scrap: 450}, Sell: currency.Money{Scrap: 452},
	})
	assert.Equal(t, 50.0, v.Rates.Buy)
	assert.Equal(t, 50.22, v.Rates.Sell)
}

func TestClassifySendError(t *testing.T) {
	friends := errors.New("Trade offers can only be sent to friends")
	unknown := errors.New("socket hang up")

	cases := []struct {
		name      string
		err       error
		wantReply string
		wantErr   error
	}{
		{"item server message", &SendError{Message: "There was an error sending your trade offer. We were unable to contact the game's item server."}, replyItemServer, nil},
		{"friends only passes through", friends, "", friends},
		{"full inventory", errors.New("would exceed the maximum number of items allowed in your Team Fortress 2 inventory"), "I don't have space for more items in my inventory", nil},
		{"busy", &SendError{EResult: 10, Message: "x"}, replyBigOffer, nil},
		{"access denied", &SendError{EResult: 15, Message: "x"}, "I don't, or you don't, have space for more items", nil},
		{"timeout", &SendError{EResult: 16, Message: "x"}, replyBigOffer, nil},
		{"service unavailable", &SendError{EResult: 20, Message: "x"}, replyItemServer, nil},
		{"other result", &SendError{EResult: 25, Message: "x"}, "An error occurred while sending the offer (LimitExceeded)", nil},
		{"unmapped", unknown, "", unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := ClassifySendError(tc.err)
			assert.Equal(t, tc.wantReply, reply)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Same(t, tc.wantErr, err)
			}
		})
	}

	reply, err := ClassifySendError(nil)
	assert.Empty(t, reply)
	assert.NoError(t, err)
}

func TestChangeMessages(t *testing.T) {
	handled := func(ours bool, state State) *Draft {
		d := NewDraft("1", "p", ours)
		MarkHandled(d, time.Now())
		d.SetState(state)
		return d
	}

	assert.Nil(t, ChangeMessages(NewDraft("1", "p", true), StateActive))
	assert.Equal(t, []string{"Success! The offer went through successfully."},
		ChangeMessages(handled(false, StateAccepted), StateActive))
	assert.Equal(t, []string{"Ohh nooooes! The offer is no longer available. Reason: The offer has been declined."},
		ChangeMessages(handled(true, StateDeclined), StateActive))
	assert.Empty(t, ChangeMessages(handled(false, StateDeclined), StateActive))
	assert.Equal(t, []string{"Ohh nooooes! The offer is no longer available. Reason: Failed to accept mobile confirmation."},
		ChangeMessages(handled(true, StateCanceled), StateCreatedNeedsConfirmation))
	assert.Equal(t, []string{"Ohh nooooes! The offer is no longer available. Reason: The offer has been active for a while."},
		ChangeMessages(handled(true, StateCanceled), StateActive))
	assert.Equal(t, []string{"Ohh nooooes! Your offer is no longer available. Reason: Items not available (traded away in a different trade)."},
		ChangeMessages(handled(false, StateInvalidItems), StateActive))
}

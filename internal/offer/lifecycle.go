package offer

const noLongerAvailable = "Ohh nooooes! The offer is no longer available. Reason: "

// ChangeMessages returns the chat replies for an offer that moved from old to
// its current state. Offers the bot did not handle get no replies.
func ChangeMessages(o Offer, old State) []string {
	if !HandledByUs(o) {
		return nil
	}
	var out []string
	state := o.State()
	if o.IsOurOffer() {
		switch state {
		case StateDeclined:
			out = append(out, noLongerAvailable+"The offer has been declined.")
		case StateCanceled:
			if old == StateCreatedNeedsConfirmation {
				out = append(out, noLongerAvailable+"Failed to accept mobile confirmation.")
			} else {
				out = append(out, noLongerAvailable+"The offer has been active for a while.")
			}
		}
	}
	switch state {
	case StateAccepted:
		out = append(out, "Success! The offer went through successfully.")
	case StateInvalidItems:
		out = append(out, "Ohh nooooes! Your offer is no longer available. Reason: Items not available (traded away in a different trade).")
	}
	return out
}

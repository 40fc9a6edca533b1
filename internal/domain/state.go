package domain

// ConversationState is the persisted position of a customer in the chat flow.
type ConversationState string

const (
	StateWelcome            ConversationState = "WELCOME"
	StateBrowsingCategories ConversationState = "BROWSING_CATEGORIES"
	StateBrowsingProducts   ConversationState = "BROWSING_PRODUCTS"
	StateSelectingVariant   ConversationState = "SELECTING_VARIANT"
	StateCartReview         ConversationState = "CART_REVIEW"
	StateAwaitingAddress    ConversationState = "AWAITING_ADDRESS"
	StateAddressConfirm     ConversationState = "ADDRESS_CONFIRM"
	StatePaymentSelect      ConversationState = "PAYMENT_SELECT"
	StateOrderPlacing       ConversationState = "ORDER_PLACING"
	StateOrderConfirmed     ConversationState = "ORDER_CONFIRMED"
)

// Valid reports whether s is one of the known states.
func (s ConversationState) Valid() bool {
	switch s {
	case StateWelcome, StateBrowsingCategories, StateBrowsingProducts,
		StateSelectingVariant, StateCartReview, StateAwaitingAddress,
		StateAddressConfirm, StatePaymentSelect, StateOrderPlacing,
		StateOrderConfirmed:
		return true
	}
	return false
}

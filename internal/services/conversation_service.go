// Package services – ConversationService
//
// This file implements the WhatsApp conversation state machine. Each inbound
// event runs one ordered sequence:
//
//	gate (dedup + session) → customer upsert → classify → mutate → reply → mark as read
//
// The customer's conversation state is persisted with the mutation that
// accompanies it (see CheckoutService); pure navigation steps persist it on
// their own. Duplicate deliveries stop at the gate with no side effects.
//
// Reply failures do not roll back committed mutations: the error is returned
// to the caller for logging and the message is still marked as read.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/observability"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
	"github.com/tbourn/whatsapp-storefront/internal/search"
	"github.com/tbourn/whatsapp-storefront/internal/session"
	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

// Reply button ids.
const (
	BtnProducts      = "btn_products"
	BtnOrders        = "btn_orders"
	BtnSupport       = "btn_support"
	BtnAddMore       = "btn_add_more"
	BtnViewCart      = "btn_view_cart"
	BtnCheckout      = "btn_checkout"
	BtnDeliverHere   = "btn_deliver_here"
	BtnChangeAddress = "btn_change_address"
	BtnPay           = "btn_pay"
	BtnPlaceCOD      = "place_cod"
	BtnPlaceUPI      = "place_upi"
)

// List row ids. Catalog rows carry the entity id after the prefix.
const (
	RowCategoryPrefix = "cat_"
	RowProductPrefix  = "prod_"
	RowVariantPrefix  = "var_"
	RowPayUPI         = "pay_upi"
	RowPayCOD         = "pay_cod"
)

const recentOrdersLimit = 5

// readableIDRE matches ids minted by NewReadableOrderID.
var readableIDRE = regexp.MustCompile(`^ORD-\d{6}-[0-9A-F]{6}$`)

const unsupportedHint = "Sorry, I can only read text and button taps. Please use the buttons above or type a product name to search."

// Admitter is the dedup/session gate.
type Admitter interface {
	Admit(ctx context.Context, e session.Entry) (session.Decision, error)
}

// ProductSearcher finds products for free-text queries.
type ProductSearcher interface {
	Search(ctx context.Context, q string, k int) ([]search.Result, error)
}

// Shop describes the store the bot speaks for.
type Shop struct {
	Name         string
	SupportPhone string
	// CatalogID is the Commerce Manager catalog linked to the business
	// number. When set, category browsing also sends a catalog preview.
	CatalogID string
}

// ConversationService drives the chat flow for inbound WhatsApp events.
type ConversationService struct {
	DB        *gorm.DB
	Gate      Admitter
	Messenger whatsapp.Messenger
	Checkout  *CheckoutService
	// Search is optional; without it free text falls back to the welcome menu.
	Search ProductSearcher
	Shop   Shop
	Now    func() time.Time
}

// NewConversationService wires a ConversationService.
func NewConversationService(db *gorm.DB, gate Admitter, m whatsapp.Messenger, checkout *CheckoutService, searcher ProductSearcher, shop Shop) *ConversationService {
	return &ConversationService{
		DB:        db,
		Gate:      gate,
		Messenger: m,
		Checkout:  checkout,
		Search:    searcher,
		Shop:      shop,
		Now:       time.Now,
	}
}

func (s *ConversationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// turn carries what a single event handler needs.
type turn struct {
	evt      whatsapp.Event
	customer *domain.Customer
}

func (t turn) to() string { return t.evt.SenderID }

// Handle processes one normalized event end to end.
func (s *ConversationService) Handle(ctx context.Context, evt whatsapp.Event) (err error) {
	ctx, span := observability.StartSpan(ctx, "ConversationService.Handle",
		attribute.String("message_id", evt.MessageID),
		attribute.String("message.kind", string(evt.Kind)),
	)
	defer func() { observability.EndSpan(span, err) }()

	decision, err := s.Gate.Admit(ctx, session.Entry{
		MessageID: evt.MessageID,
		Sender:    evt.SenderID,
		Kind:      string(evt.Kind),
		Content:   logContent(evt),
		Payload:   evt.Raw,
	})
	if err != nil {
		observability.RecordWebhookEvent(observability.OutcomeFailed)
		return err
	}
	if !decision.Accepted {
		observability.RecordWebhookEvent(observability.OutcomeDuplicate)
		log.Debug().Str("sender", evt.SenderID).Str("message_id", evt.MessageID).Msg("duplicate delivery ignored")
		return nil
	}
	span.SetAttributes(attribute.Bool("session.new", decision.NewSession))

	cust, err := repo.UpsertCustomer(ctx, s.DB, evt.SenderID, evt.SenderName, s.now())
	if err != nil {
		observability.RecordWebhookEvent(observability.OutcomeFailed)
		return fmt.Errorf("upsert customer: %w", err)
	}

	t := turn{evt: evt, customer: cust}
	replyErr := s.route(ctx, t, decision.NewSession)
	readErr := s.Messenger.MarkAsRead(ctx, evt.MessageID)
	if readErr != nil {
		readErr = fmt.Errorf("mark as read: %w", readErr)
	}

	if replyErr != nil {
		observability.RecordWebhookEvent(observability.OutcomeFailed)
	} else {
		observability.RecordWebhookEvent(observability.OutcomeAccepted)
	}
	return errors.Join(replyErr, readErr)
}

// route picks the transition for the event. A new session or a welcome
// keyword always wins.
func (s *ConversationService) route(ctx context.Context, t turn, newSession bool) error {
	evt := t.evt
	if newSession || (evt.Kind == whatsapp.KindText && session.IsWelcomeKeyword(evt.Text)) {
		return s.welcome(ctx, t)
	}

	switch evt.Kind {
	case whatsapp.KindButton, whatsapp.KindList:
		return s.interaction(ctx, t)
	case whatsapp.KindAddress:
		line, pin := "", ""
		if evt.Address != nil {
			line, pin = evt.Address.Line(), evt.Address.InPinCode
		}
		if line == "" {
			line = evt.Text
		}
		return s.saveAddress(ctx, t, line, pin)
	case whatsapp.KindText:
		return s.freeText(ctx, t)
	default:
		// Media and other kinds leave the conversation where it is.
		return s.Messenger.SendText(ctx, t.to(), unsupportedHint)
	}
}

func (s *ConversationService) interaction(ctx context.Context, t turn) error {
	id := t.evt.InteractionID
	switch id {
	case BtnProducts, BtnAddMore:
		return s.showCategories(ctx, t)
	case BtnOrders:
		return s.showOrders(ctx, t)
	case BtnSupport:
		return s.support(ctx, t)
	case BtnViewCart:
		return s.viewCart(ctx, t)
	case BtnCheckout:
		return s.checkout(ctx, t)
	case BtnChangeAddress:
		return s.requestAddress(ctx, t)
	case BtnDeliverHere, BtnPay:
		return s.paymentMenu(ctx, t)
	case RowPayCOD:
		return s.orderSummary(ctx, t, domain.PaymentCOD)
	case RowPayUPI:
		return s.orderSummary(ctx, t, domain.PaymentUPI)
	case BtnPlaceCOD:
		return s.placeOrder(ctx, t, domain.PaymentCOD)
	case BtnPlaceUPI:
		return s.placeOrder(ctx, t, domain.PaymentUPI)
	}

	if n, ok := parseRowID(id, RowCategoryPrefix); ok {
		return s.showProducts(ctx, t, n)
	}
	if n, ok := parseRowID(id, RowProductPrefix); ok {
		return s.showVariants(ctx, t, n)
	}
	if n, ok := parseRowID(id, RowVariantPrefix); ok {
		return s.addToCart(ctx, t, n)
	}
	return s.welcome(ctx, t)
}

// freeText treats the text as an address when one is expected, or when the
// customer has a non-empty cart but no default address. Anything else is a
// product search.
func (s *ConversationService) freeText(ctx context.Context, t turn) error {
	text := strings.TrimSpace(t.evt.Text)
	if text == "" {
		return s.welcome(ctx, t)
	}
	if t.customer.ConversationState == domain.StateAwaitingAddress {
		return s.saveAddress(ctx, t, text, "")
	}
	if id := strings.ToUpper(text); readableIDRE.MatchString(id) {
		return s.orderDetail(ctx, t, id)
	}
	wantsAddress, err := s.needsAddress(ctx, t.customer.ID)
	if err != nil {
		return err
	}
	if wantsAddress {
		return s.saveAddress(ctx, t, text, "")
	}
	return s.searchProducts(ctx, t, text)
}

func (s *ConversationService) needsAddress(ctx context.Context, customerID uint) (bool, error) {
	if _, err := cartSummary(ctx, s.DB, customerID); err != nil {
		if errors.Is(err, ErrEmptyCart) {
			return false, nil
		}
		return false, err
	}
	_, err := repo.GetDefaultAddress(ctx, s.DB, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// ---- transitions ----

func (s *ConversationService) welcome(ctx context.Context, t turn) error {
	if err := s.setState(ctx, t, domain.StateWelcome); err != nil {
		return err
	}
	body := fmt.Sprintf("Welcome to *%s*! 🏪\nChoose an option to start:", s.Shop.Name)
	return s.Messenger.SendButtons(ctx, t.to(), body, []whatsapp.Button{
		{ID: BtnProducts, Title: "🛍️ View Products"},
		{ID: BtnOrders, Title: "📦 My Orders"},
		{ID: BtnSupport, Title: "📞 Call Shop"},
	})
}

func (s *ConversationService) showCategories(ctx context.Context, t turn) error {
	cats, err := repo.ListActiveCategories(ctx, s.DB, whatsapp.MaxListRows)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		return s.Messenger.SendText(ctx, t.to(), "Sorry, we haven't stocked any products yet. Please check back soon.")
	}
	if err := s.setState(ctx, t, domain.StateBrowsingCategories); err != nil {
		return err
	}
	rows := make([]whatsapp.Row, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, whatsapp.Row{
			ID:    RowCategoryPrefix + strconv.FormatUint(uint64(c.ID), 10),
			Title: titleCase(c.Name),
		})
	}
	if err := s.Messenger.SendList(ctx, t.to(), whatsapp.List{
		Header:     "Shop by category",
		Body:       "Pick a category to see what's in stock.",
		ButtonText: "Categories",
		Sections:   []whatsapp.Section{{Title: "Categories", Rows: rows}},
	}); err != nil {
		return err
	}
	if s.Shop.CatalogID == "" {
		return nil
	}
	return s.Messenger.SendCatalog(ctx, t.to(), "Or browse our full catalog with photos.", "")
}

func (s *ConversationService) showProducts(ctx context.Context, t turn, categoryID uint) error {
	products, err := repo.ListActiveProductsByCategory(ctx, s.DB, categoryID, whatsapp.MaxListRows)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return s.Messenger.SendText(ctx, t.to(), "No products are available in this category right now.")
	}
	if err := s.setState(ctx, t, domain.StateBrowsingProducts); err != nil {
		return err
	}
	return s.sendProductList(ctx, t, "Pick a product to see pack sizes and prices.", products)
}

func (s *ConversationService) showVariants(ctx context.Context, t turn, productID uint) error {
	product, err := repo.GetProduct(ctx, s.DB, productID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !product.IsActive) {
		return s.Messenger.SendText(ctx, t.to(), "Sorry, that product is no longer available.")
	}
	if err != nil {
		return err
	}
	variants, err := repo.ListAvailableVariants(ctx, s.DB, productID, whatsapp.MaxListRows)
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		return s.Messenger.SendText(ctx, t.to(), fmt.Sprintf("Sorry, %s is out of stock right now.", titleCase(product.BaseName)))
	}
	if err := s.setState(ctx, t, domain.StateSelectingVariant); err != nil {
		return err
	}
	rows := make([]whatsapp.Row, 0, len(variants))
	for _, v := range variants {
		rows = append(rows, whatsapp.Row{
			ID:          RowVariantPrefix + strconv.FormatUint(uint64(v.ID), 10),
			Title:       v.WeightLabel,
			Description: domain.FormatRupees(v.Price),
		})
	}
	name := titleCase(product.BaseName)
	return s.Messenger.SendList(ctx, t.to(), whatsapp.List{
		Header:     name,
		Body:       "Choose a pack size to add it to your cart.",
		ButtonText: "Pack sizes",
		Sections:   []whatsapp.Section{{Title: name, Rows: rows}},
	})
}

func (s *ConversationService) addToCart(ctx context.Context, t turn, variantID uint) error {
	v, qty, err := s.Checkout.AddToCart(ctx, t.customer.ID, variantID)
	if errors.Is(err, ErrVariantUnavailable) {
		return s.Messenger.SendText(ctx, t.to(), "Sorry, that item is out of stock right now.")
	}
	if err != nil {
		return err
	}
	body := fmt.Sprintf("✅ Added *%s (%s)* to your cart.\nQuantity: %d · %s each",
		titleCase(v.Product.BaseName), v.WeightLabel, qty, domain.FormatRupees(v.Price))
	return s.Messenger.SendButtons(ctx, t.to(), body, []whatsapp.Button{
		{ID: BtnAddMore, Title: "➕ Add More"},
		{ID: BtnViewCart, Title: "🛒 View Cart"},
		{ID: BtnCheckout, Title: "✅ Checkout"},
	})
}

func (s *ConversationService) viewCart(ctx context.Context, t turn) error {
	sum, err := cartSummary(ctx, s.DB, t.customer.ID)
	if errors.Is(err, ErrEmptyCart) {
		return s.cartEmpty(ctx, t)
	}
	if err != nil {
		return err
	}
	if err := s.setState(ctx, t, domain.StateCartReview); err != nil {
		return err
	}
	body := "🛒 *Your cart*\n" + s.formatLines(sum.Lines) + "\n*Total: " + domain.FormatRupees(sum.Total) + "*"
	return s.Messenger.SendButtons(ctx, t.to(), body, []whatsapp.Button{
		{ID: BtnAddMore, Title: "➕ Add More"},
		{ID: BtnCheckout, Title: "✅ Checkout"},
	})
}

func (s *ConversationService) checkout(ctx context.Context, t turn) error {
	if _, err := cartSummary(ctx, s.DB, t.customer.ID); err != nil {
		if errors.Is(err, ErrEmptyCart) {
			return s.cartEmpty(ctx, t)
		}
		return err
	}
	addr, err := repo.GetDefaultAddress(ctx, s.DB, t.customer.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return s.requestAddress(ctx, t)
	}
	if err != nil {
		return err
	}
	if err := s.setState(ctx, t, domain.StateAddressConfirm); err != nil {
		return err
	}
	return s.Messenger.SendButtons(ctx, t.to(), "📍 Deliver to:\n"+formatAddress(addr), []whatsapp.Button{
		{ID: BtnDeliverHere, Title: "📍 Deliver Here"},
		{ID: BtnChangeAddress, Title: "✏️ Change Address"},
	})
}

func (s *ConversationService) requestAddress(ctx context.Context, t turn) error {
	if err := s.setState(ctx, t, domain.StateAwaitingAddress); err != nil {
		return err
	}
	return s.Messenger.SendAddressMessage(ctx, t.to(), "Please share your delivery address.")
}

func (s *ConversationService) saveAddress(ctx context.Context, t turn, text, pincode string) error {
	addr, err := s.Checkout.SaveAddress(ctx, t.customer.ID, text, pincode)
	if errors.Is(err, ErrEmptyAddress) {
		return s.Messenger.SendText(ctx, t.to(), "That address looks empty. Please send your full delivery address.")
	}
	if err != nil {
		return err
	}
	return s.Messenger.SendButtons(ctx, t.to(), "✅ Address saved:\n"+formatAddress(addr), []whatsapp.Button{
		{ID: BtnPay, Title: "💳 Proceed to Pay"},
	})
}

func (s *ConversationService) paymentMenu(ctx context.Context, t turn) error {
	if err := s.setState(ctx, t, domain.StatePaymentSelect); err != nil {
		return err
	}
	return s.Messenger.SendList(ctx, t.to(), whatsapp.List{
		Body:       "How would you like to pay?",
		ButtonText: "Payment method",
		Sections: []whatsapp.Section{{
			Title: "Payment",
			Rows: []whatsapp.Row{
				{ID: RowPayUPI, Title: "UPI", Description: "Pay online with any UPI app"},
				{ID: RowPayCOD, Title: "Cash on Delivery", Description: "Pay when your order arrives"},
			},
		}},
	})
}

func (s *ConversationService) orderSummary(ctx context.Context, t turn, method string) error {
	sum, err := cartSummary(ctx, s.DB, t.customer.ID)
	if errors.Is(err, ErrEmptyCart) {
		return s.cartEmpty(ctx, t)
	}
	if err != nil {
		return err
	}
	addrLine := "Not set"
	addr, err := repo.GetDefaultAddress(ctx, s.DB, t.customer.ID)
	switch {
	case err == nil:
		addrLine = formatAddress(addr)
	case !errors.Is(err, repo.ErrNotFound):
		return err
	}
	if err := s.setState(ctx, t, domain.StateOrderPlacing); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("🧾 *Order summary*\n")
	b.WriteString(s.formatLines(sum.Lines))
	b.WriteString("\n*Total: " + domain.FormatRupees(sum.Total) + "*")
	b.WriteString("\nPayment: " + paymentLabel(method))
	b.WriteString("\nDeliver to: " + addrLine)

	btn := whatsapp.Button{ID: BtnPlaceCOD, Title: "✅ Place Order"}
	if method == domain.PaymentUPI {
		btn.ID = BtnPlaceUPI
	}
	return s.Messenger.SendButtons(ctx, t.to(), b.String(), []whatsapp.Button{btn})
}

func (s *ConversationService) placeOrder(ctx context.Context, t turn, method string) error {
	order, err := s.Checkout.PlaceOrder(ctx, t.customer.ID, method)
	if errors.Is(err, ErrEmptyCart) {
		return s.cartEmpty(ctx, t)
	}
	if err != nil {
		return err
	}
	log.Info().
		Str("sender", t.evt.SenderID).
		Str("message_id", t.evt.MessageID).
		Str("order_id", order.ReadableID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order placed")

	body := fmt.Sprintf("🎉 Order placed!\nOrder ID: *%s*\nTotal: %s\nPayment: %s\nStatus: %s",
		order.ReadableID, domain.FormatRupees(order.TotalAmount), paymentLabel(order.PaymentMethod), order.Status)
	if order.Status == domain.OrderPendingPayment {
		body += "\nWe'll share the UPI payment details shortly."
	}
	return s.Messenger.SendText(ctx, t.to(), body)
}

func (s *ConversationService) showOrders(ctx context.Context, t turn) error {
	orders, err := repo.ListCustomerOrders(ctx, s.DB, t.customer.ID, recentOrdersLimit)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return s.Messenger.SendText(ctx, t.to(), "You have no orders yet. Tap *View Products* to start shopping.")
	}
	var b strings.Builder
	b.WriteString("📦 *Your recent orders*")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n%s · %s · %s · %s", o.ReadableID, o.CreatedAt.Format("02 Jan"), domain.FormatRupees(o.TotalAmount), o.Status)
	}
	return s.Messenger.SendText(ctx, t.to(), b.String())
}

// orderDetail answers a typed order id. Orders of other customers read as
// unknown.
func (s *ConversationService) orderDetail(ctx context.Context, t turn, readableID string) error {
	o, err := repo.GetOrderByReadableID(ctx, s.DB, readableID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && o.CustomerID != t.customer.ID) {
		return s.Messenger.SendText(ctx, t.to(), fmt.Sprintf("I couldn't find order %s on your account.", readableID))
	}
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Order %s*\nPlaced %s · %s · %s", o.ReadableID, o.CreatedAt.Format("02 Jan"), o.PaymentMethod, o.Status)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "\n%s (%s) x%d · %s", titleCase(it.ProductName), it.WeightLabel, it.Quantity, domain.FormatRupees(it.TotalPrice))
	}
	fmt.Fprintf(&b, "\n*Total: %s*", domain.FormatRupees(o.TotalAmount))
	return s.Messenger.SendText(ctx, t.to(), b.String())
}

func (s *ConversationService) support(ctx context.Context, t turn) error {
	if s.Shop.SupportPhone == "" {
		return s.Messenger.SendText(ctx, t.to(), "Reply here with your question and our team will get back to you.")
	}
	return s.Messenger.SendText(ctx, t.to(), fmt.Sprintf("📞 Call %s at %s.", s.Shop.Name, s.Shop.SupportPhone))
}

func (s *ConversationService) searchProducts(ctx context.Context, t turn, q string) error {
	if s.Search == nil {
		return s.welcome(ctx, t)
	}
	results, err := s.Search.Search(ctx, q, whatsapp.MaxListRows)
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	found, err := repo.ListActiveProductsByIDs(ctx, s.DB, ids)
	if err != nil {
		return err
	}
	products := make([]domain.Product, 0, len(results))
	for _, r := range results {
		if p, ok := found[r.ID]; ok {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		return s.Messenger.SendButtons(ctx, t.to(),
			fmt.Sprintf("Sorry, I couldn't find anything for \"%s\".", whatsapp.Truncate(q, 60)),
			[]whatsapp.Button{{ID: BtnProducts, Title: "🛍️ View Products"}})
	}
	if err := s.setState(ctx, t, domain.StateBrowsingProducts); err != nil {
		return err
	}
	return s.sendProductList(ctx, t, fmt.Sprintf("Here's what I found for \"%s\".", whatsapp.Truncate(q, 60)), products)
}

func (s *ConversationService) cartEmpty(ctx context.Context, t turn) error {
	return s.Messenger.SendButtons(ctx, t.to(), "🛒 Your cart is empty.", []whatsapp.Button{
		{ID: BtnProducts, Title: "🛍️ View Products"},
	})
}

// ---- helpers ----

func (s *ConversationService) setState(ctx context.Context, t turn, state domain.ConversationState) error {
	if t.customer.ConversationState == state {
		return nil
	}
	if err := repo.SetConversationState(ctx, s.DB, t.customer.ID, state, s.now()); err != nil {
		return fmt.Errorf("set state %s: %w", state, err)
	}
	t.customer.ConversationState = state
	return nil
}

func (s *ConversationService) sendProductList(ctx context.Context, t turn, body string, products []domain.Product) error {
	rows := make([]whatsapp.Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, whatsapp.Row{
			ID:          RowProductPrefix + strconv.FormatUint(uint64(p.ID), 10),
			Title:       titleCase(p.BaseName),
			Description: p.Description,
		})
	}
	return s.Messenger.SendList(ctx, t.to(), whatsapp.List{
		Header:     "Products",
		Body:       body,
		ButtonText: "Products",
		Sections:   []whatsapp.Section{{Title: "Products", Rows: rows}},
	})
}

func (s *ConversationService) formatLines(lines []domain.CartLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d × %s (%s) = %s", l.Quantity, titleCase(l.ProductName), l.WeightLabel, domain.FormatRupees(l.Subtotal()))
	}
	return b.String()
}

// titleCase capitalizes catalog names for display. Casers are stateful, so
// one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

func formatAddress(a *domain.Address) string {
	if a.Pincode == "" {
		return a.Text
	}
	return a.Text + " - " + a.Pincode
}

func paymentLabel(method string) string {
	if method == domain.PaymentCOD {
		return "Cash on Delivery"
	}
	return method
}

// parseRowID extracts the numeric id from ids like "var_42".
func parseRowID(id, prefix string) (uint, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// logContent is what the conversation log stores as the message content.
func logContent(evt whatsapp.Event) string {
	if evt.InteractionID != "" {
		return evt.InteractionID
	}
	if evt.Address != nil {
		return evt.Address.Line()
	}
	return evt.Text
}

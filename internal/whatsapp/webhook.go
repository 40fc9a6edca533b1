// Package whatsapp talks to the WhatsApp Cloud API: it normalizes inbound
// webhook envelopes into Events and sends outbound messages through Client.
package whatsapp

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Kind classifies an inbound message.
type Kind string

const (
	KindText        Kind = "text"
	KindButton      Kind = "button"
	KindList        Kind = "list"
	KindAddress     Kind = "address"
	KindUnsupported Kind = "unsupported"
)

// Event is the canonical form of one inbound customer message.
type Event struct {
	MessageID  string
	SenderID   string
	SenderName string
	Kind       Kind
	// Text is the typed body for KindText and the tapped title for
	// interactive replies.
	Text string
	// InteractionID is the button or list row id that was tapped.
	InteractionID string
	Address       *Address
	Timestamp     time.Time
	// Raw is the provider's message object, kept for the conversation log.
	Raw json.RawMessage
}

// Address is the structured form submitted through an address message.
type Address struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number"`
	InPinCode    string `json:"in_pin_code"`
	HouseNumber  string `json:"house_number"`
	FloorNumber  string `json:"floor_number"`
	TowerNumber  string `json:"tower_number"`
	BuildingName string `json:"building_name"`
	Address      string `json:"address"`
	LandmarkArea string `json:"landmark_area"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Line renders the address as a single comma-separated line.
func (a Address) Line() string {
	parts := make([]string, 0, 8)
	for _, p := range []string{a.HouseNumber, a.FloorNumber, a.TowerNumber, a.BuildingName, a.Address, a.LandmarkArea, a.City, a.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Envelope is the webhook POST body.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string            `json:"messaging_product"`
	Contacts         []Contact         `json:"contacts"`
	Messages         []json.RawMessage `json:"messages"`
	Statuses         []json.RawMessage `json:"statuses"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	// Quick-reply buttons on template messages.
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Interactive *interactive `json:"interactive"`
}

type reply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type interactive struct {
	Type           string `json:"type"`
	ButtonReply    *reply `json:"button_reply"`
	ListReply      *reply `json:"list_reply"`
	AddressMessage *struct {
		Values Address `json:"values"`
	} `json:"address_message"`
	NFMReply *struct {
		Name         string `json:"name"`
		Body         string `json:"body"`
		ResponseJSON string `json:"response_json"`
	} `json:"nfm_reply"`
}

// Normalize extracts customer messages from a webhook body. Status callbacks
// and message objects lacking an id or sender are skipped. An error is
// returned only when body is not JSON at all.
func Normalize(body []byte) ([]Event, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	var out []Event
	for _, e := range env.Entry {
		for _, ch := range e.Changes {
			names := make(map[string]string, len(ch.Value.Contacts))
			for _, c := range ch.Value.Contacts {
				names[c.WaID] = strings.TrimSpace(c.Profile.Name)
			}
			for _, raw := range ch.Value.Messages {
				evt, ok := normalizeMessage(raw)
				if !ok {
					continue
				}
				evt.SenderName = names[evt.SenderID]
				out = append(out, evt)
			}
		}
	}
	return out, nil
}

// passiveTypes are message types that carry no customer request.
var passiveTypes = map[string]struct{}{
	"reaction": {},
	"system":   {},
	"unknown":  {},
}

func normalizeMessage(raw json.RawMessage) (Event, bool) {
	var m message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Event{}, false
	}
	if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.From) == "" {
		return Event{}, false
	}
	if _, ok := passiveTypes[m.Type]; ok {
		return Event{}, false
	}

	evt := Event{
		MessageID: m.ID,
		SenderID:  m.From,
		Kind:      KindUnsupported,
		Timestamp: parseUnix(m.Timestamp),
		Raw:       raw,
	}

	switch m.Type {
	case "text":
		if m.Text != nil {
			evt.Kind = KindText
			evt.Text = strings.TrimSpace(m.Text.Body)
		}
	case "button":
		if m.Button != nil {
			evt.Kind = KindButton
			evt.InteractionID = m.Button.Payload
			evt.Text = m.Button.Text
		}
	case "interactive":
		normalizeInteractive(m.Interactive, &evt)
	}
	return evt, true
}

func normalizeInteractive(in *interactive, evt *Event) {
	if in == nil {
		return
	}
	switch {
	case in.ButtonReply != nil:
		evt.Kind = KindButton
		evt.InteractionID = in.ButtonReply.ID
		evt.Text = in.ButtonReply.Title
	case in.ListReply != nil:
		evt.Kind = KindList
		evt.InteractionID = in.ListReply.ID
		evt.Text = in.ListReply.Title
	case in.AddressMessage != nil:
		a := in.AddressMessage.Values
		evt.Kind = KindAddress
		evt.Address = &a
	case in.NFMReply != nil && in.NFMReply.ResponseJSON != "":
		var resp struct {
			Values Address `json:"values"`
		}
		if err := json.Unmarshal([]byte(in.NFMReply.ResponseJSON), &resp); err != nil {
			return
		}
		evt.Kind = KindAddress
		evt.Address = &resp.Values
	}
}

func parseUnix(s string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

package agents

import (
	"encoding/json"
	"fmt"
)

// Message is one turn of an agent exchange: text plus a mapping of named
// Embeds. Keys are unique within a message; their order carries no meaning.
// An embed is replaced by assigning a new Embed under the same key, never
// mutated in place.
type Message struct {
	Text   string
	Embeds map[string]*Embed
}

// TextMessage creates a Message with no embeds.
func TextMessage(text string) Message {
	return Message{Text: text}
}

// WithEmbed returns a copy of m with the embed stored under key, replacing
// any previous embed with that key. The receiver is left untouched.
func (m Message) WithEmbed(key string, e *Embed) Message {
	embeds := make(map[string]*Embed, len(m.Embeds)+1)
	for k, v := range m.Embeds {
		embeds[k] = v
	}
	embeds[key] = e
	return Message{Text: m.Text, Embeds: embeds}
}

// wireEmbed is the JSON shape of an embed on the Agent Protocol.
type wireEmbed struct {
	ContentType string `json:"content_type"`
	Base64      string `json:"base64"`
}

// wireMessage is the JSON shape of a Message on the Agent Protocol.
type wireMessage struct {
	Text   string               `json:"text"`
	Embeds map[string]wireEmbed `json:"embeds,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{Text: m.Text}
	if len(m.Embeds) > 0 {
		w.Embeds = make(map[string]wireEmbed, len(m.Embeds))
		for k, e := range m.Embeds {
			w.Embeds[k] = wireEmbed{ContentType: e.ContentType(), Base64: e.Base64()}
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Inbound embeds pass through the
// same construction check as NewEmbed, so a URI-shaped payload in the wire
// data is rejected rather than silently stored.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Text = w.Text
	m.Embeds = nil
	if len(w.Embeds) > 0 {
		m.Embeds = make(map[string]*Embed, len(w.Embeds))
		for k, we := range w.Embeds {
			e, err := NewEmbed(we.ContentType, we.Base64)
			if err != nil {
				return fmt.Errorf("embed %q: %w", k, err)
			}
			m.Embeds[k] = e
		}
	}
	return nil
}

// AgentQuery is the request body the platform POSTs to an agent func.
type AgentQuery struct {
	Message Message `json:"message"`
	// AccessToken authenticates platform calls made on the user's behalf
	// (user storage, OAuth). Empty when the platform sends none.
	AccessToken string `json:"access_token,omitempty"`
}

// AgentResponse is the body an agent func returns to the platform.
type AgentResponse struct {
	Message Message `json:"message"`
}

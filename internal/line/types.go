// Package line implements the LINE Messaging API boundary: webhook payload
// decoding, signature verification, postback command decoding, and the
// outbound reply client.
package line

// WebhookPayload is the body of one inbound delivery. Events arrive as an
// ordered batch and may be redelivered whole if the response is not a
// prompt success.
type WebhookPayload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single inbound event within a delivery batch.
type Event struct {
	Type       string        `json:"type"` // "message", "postback", ...
	ReplyToken string        `json:"replyToken"`
	Source     Source        `json:"source"`
	Message    *EventMessage `json:"message,omitempty"`
	Postback   *Postback     `json:"postback,omitempty"`
	Timestamp  int64         `json:"timestamp"`
}

// Source identifies the sending end-user.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// EventMessage is the message body of a "message" event.
type EventMessage struct {
	Type string `json:"type"` // only "text" is handled
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Postback is the body of a "postback" event. Data is a flat query string;
// see ParsePostback.
type Postback struct {
	Data string `json:"data"`
}

// Message is one outbound message unit. A reply token carries 1..5 units
// delivered as a single atomic burst.
type Message interface {
	message()
}

// TextMessage is a plain text message unit.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (TextMessage) message() {}

// ImageMessage is an image message unit.
type ImageMessage struct {
	Type               string `json:"type"`
	OriginalContentURL string `json:"originalContentUrl"`
	PreviewImageURL    string `json:"previewImageUrl"`
}

func (ImageMessage) message() {}

// TemplateMessage wraps a buttons template.
type TemplateMessage struct {
	Type     string          `json:"type"`
	AltText  string          `json:"altText"`
	Template ButtonsTemplate `json:"template"`
}

func (TemplateMessage) message() {}

// ButtonsTemplate is the buttons layout. Text is capped at 60 characters
// by the platform; callers truncate before building.
type ButtonsTemplate struct {
	Type              string   `json:"type"`
	ThumbnailImageURL string   `json:"thumbnailImageUrl,omitempty"`
	Title             string   `json:"title,omitempty"`
	Text              string   `json:"text"`
	Actions           []Action `json:"actions"`
}

// Action is one button. Type selects which of Data/URI/Text is meaningful.
type Action struct {
	Type  string `json:"type"` // "postback", "uri", "message"
	Label string `json:"label"`
	Data  string `json:"data,omitempty"`
	URI   string `json:"uri,omitempty"`
	Text  string `json:"text,omitempty"`
}

// NewText builds a text message unit.
func NewText(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

// NewImage builds an image message unit using one URL for both the full
// image and the preview.
func NewImage(url string) ImageMessage {
	return ImageMessage{Type: "image", OriginalContentURL: url, PreviewImageURL: url}
}

// NewButtons builds a buttons template message.
func NewButtons(altText, title, text string, actions ...Action) TemplateMessage {
	return TemplateMessage{
		Type:    "template",
		AltText: altText,
		Template: ButtonsTemplate{
			Type:    "buttons",
			Title:   title,
			Text:    text,
			Actions: actions,
		},
	}
}

// PostbackAction builds a postback button carrying encoded command data.
func PostbackAction(label, data string) Action {
	return Action{Type: "postback", Label: label, Data: data}
}

// URIAction builds a button that opens a URL.
func URIAction(label, uri string) Action {
	return Action{Type: "uri", Label: label, URI: uri}
}

// MessageAction builds a button that sends text on the user's behalf.
func MessageAction(label, text string) Action {
	return Action{Type: "message", Label: label, Text: text}
}

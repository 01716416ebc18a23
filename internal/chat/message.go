package chat

// Message is one reply message. Only the types the relay sends are modelled.
type Message interface {
	messageType() string
}

// TextMessage is a plain-text message.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextMessage creates a text message.
func NewTextMessage(text string) *TextMessage {
	return &TextMessage{Type: "text", Text: text}
}

func (m *TextMessage) messageType() string { return m.Type }

// FlexMessage is a structured card rendered by the chat client. AltText is shown where
// cards are not supported, such as push previews.
type FlexMessage struct {
	Type     string  `json:"type"`
	AltText  string  `json:"altText"`
	Contents *Bubble `json:"contents"`
}

// NewFlexMessage creates a flex message holding a single bubble.
func NewFlexMessage(altText string, bubble *Bubble) *FlexMessage {
	return &FlexMessage{Type: "flex", AltText: altText, Contents: bubble}
}

func (m *FlexMessage) messageType() string { return m.Type }

// Component is any element that can sit inside a Box.
type Component interface {
	component()
}

// Bubble is a single card.
type Bubble struct {
	Type   string `json:"type"`
	Size   string `json:"size,omitempty"`
	Header *Box   `json:"header,omitempty"`
	Hero   *Image `json:"hero,omitempty"`
	Body   *Box   `json:"body,omitempty"`
	Footer *Box   `json:"footer,omitempty"`
}

// NewBubble creates an empty bubble of the given size.
func NewBubble(size string) *Bubble {
	return &Bubble{Type: "bubble", Size: size}
}

// Box lays out its contents vertically or horizontally.
type Box struct {
	Type            string      `json:"type"`
	Layout          string      `json:"layout"`
	Contents        []Component `json:"contents"`
	Spacing         string      `json:"spacing,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	PaddingAll      string      `json:"paddingAll,omitempty"`
	PaddingTop      string      `json:"paddingTop,omitempty"`
	Height          string      `json:"height,omitempty"`
}

// NewVerticalBox creates a vertical box.
func NewVerticalBox(contents ...Component) *Box {
	return &Box{Type: "box", Layout: "vertical", Contents: contents}
}

// NewHorizontalBox creates a horizontal box.
func NewHorizontalBox(contents ...Component) *Box {
	return &Box{Type: "box", Layout: "horizontal", Contents: contents}
}

func (*Box) component() {}

// Text is a text element.
type Text struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Size   string `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
	Color  string `json:"color,omitempty"`
	Flex   int    `json:"flex,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
}

// NewText creates a text element.
func NewText(text string) *Text {
	return &Text{Type: "text", Text: text}
}

func (*Text) component() {}

// Image is an image element.
type Image struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Size        string `json:"size,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	AspectMode  string `json:"aspectMode,omitempty"`
}

// NewImage creates an image element.
func NewImage(url string) *Image {
	return &Image{Type: "image", URL: url}
}

func (*Image) component() {}

// URIAction opens a link.
type URIAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

// Button is a tappable element bound to an action.
type Button struct {
	Type   string     `json:"type"`
	Action *URIAction `json:"action"`
	Style  string     `json:"style,omitempty"`
	Color  string     `json:"color,omitempty"`
	Height string     `json:"height,omitempty"`
}

// NewLinkButton creates a button that opens uri.
func NewLinkButton(label, uri string) *Button {
	return &Button{
		Type:   "button",
		Action: &URIAction{Type: "uri", Label: label, URI: uri},
	}
}

func (*Button) component() {}

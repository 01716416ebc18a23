// Package history answers the history command with the group's latest accident.
package history

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/afikmenashe/accident-relay/internal/chat"
	"github.com/afikmenashe/accident-relay/internal/database"
	"github.com/afikmenashe/accident-relay/internal/notify"
)

// Reply texts.
const (
	CardTitle     = "รายงานประวัติอุบัติเหตุ"
	NoHistoryText = "ไม่พบประวัติการบันทึก"
	ErrorText     = "เกิดข้อผิดพลาดในการดึงข้อมูลประวัติ"
)

// Card defaults.
const (
	DefaultImageURL      = "https://cdn.pixabay.com/photo/2015/06/03/13/38/plymouth-796441_1280.jpg"
	DefaultDetailPageURL = "https://your-website-url.com"
)

const (
	colorHeader    = "#2E8B57"
	colorLabel     = "#2F4F4F"
	colorValue     = "#1F2937"
	colorLevelHigh = "#FF0000"
	colorLevelLow  = "#2E8B57"
)

// Store reads the latest event of a group.
type Store interface {
	LatestEventForGroup(ctx context.Context, groupChatID string) (*database.HistoryRecord, error)
}

// Builder builds history replies.
type Builder struct {
	store         Store
	location      *time.Location
	detailPageURL string
	imageURL      string
}

// NewBuilder creates a builder rendering timestamps in location.
func NewBuilder(store Store, location *time.Location, detailPageURL, imageURL string) *Builder {
	if location == nil {
		location = time.UTC
	}
	if detailPageURL == "" {
		detailPageURL = DefaultDetailPageURL
	}
	if imageURL == "" {
		imageURL = DefaultImageURL
	}
	return &Builder{
		store:         store,
		location:      location,
		detailPageURL: detailPageURL,
		imageURL:      imageURL,
	}
}

// BuildHistoryResponse returns the history card for the group's most recent event, the
// no-history text when the group has none, or the error text when the store fails.
// It only reads, so repeated calls without writes in between return equal replies.
func (b *Builder) BuildHistoryResponse(ctx context.Context, groupChatID string) chat.Message {
	record, err := b.store.LatestEventForGroup(ctx, groupChatID)
	if errors.Is(err, database.ErrNotFound) {
		return chat.NewTextMessage(NoHistoryText)
	}
	if err != nil {
		slog.Error("Failed to fetch history", "group_id", groupChatID, "error", err)
		return chat.NewTextMessage(ErrorText)
	}
	return chat.NewFlexMessage(CardTitle, b.card(record))
}

func (b *Builder) card(record *database.HistoryRecord) *chat.Bubble {
	title := chat.NewText(CardTitle)
	title.Weight = "bold"
	title.Size = "lg"
	title.Color = "#FFFFFF"

	header := chat.NewVerticalBox(title)
	header.BackgroundColor = colorHeader
	header.PaddingAll = "20px"
	header.PaddingTop = "22px"
	header.Height = "72px"

	hero := chat.NewImage(b.imageURL)
	hero.Size = "full"
	hero.AspectRatio = "20:13"
	hero.AspectMode = "cover"

	levelColor := colorLevelLow
	if record.Level == "high" {
		levelColor = colorLevelHigh
	}

	body := chat.NewVerticalBox(chat.NewVerticalBox(
		row("ชื่อ", record.UserName, colorValue),
		row("วันที่", notify.FormatTimestamp(record.CreatedAt, b.location), colorValue),
		row("ระดับ", record.Level, levelColor),
	))
	body.PaddingAll = "20px"
	body.Spacing = "sm"

	mapButton := chat.NewLinkButton("ดูตำแหน่งบน Google Maps", notify.MapURL(record.Latitude, record.Longitude))
	mapButton.Style = "primary"
	mapButton.Color = colorHeader
	mapButton.Height = "sm"

	detailButton := chat.NewLinkButton("ดูรายละเอียดเพิ่มเติม", b.detailPageURL)
	detailButton.Style = "secondary"
	detailButton.Color = "#FFFFFF"
	detailButton.Height = "sm"

	footer := chat.NewVerticalBox(mapButton, detailButton)
	footer.Spacing = "sm"

	bubble := chat.NewBubble("mega")
	bubble.Header = header
	bubble.Hero = hero
	bubble.Body = body
	bubble.Footer = footer
	return bubble
}

func row(label, value, valueColor string) *chat.Box {
	l := chat.NewText(label)
	l.Size = "sm"
	l.Color = colorLabel
	l.Flex = 1
	l.Weight = "bold"

	v := chat.NewText(value)
	v.Size = "sm"
	v.Color = valueColor
	v.Flex = 2
	v.Wrap = true

	box := chat.NewHorizontalBox(l, v)
	box.Spacing = "sm"
	return box
}

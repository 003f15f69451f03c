package ingest

import (
	"unicode/utf16"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/netdisk-aggregator/internal/links/extract"
)

// buildMetadata assembles the structured hints extract.Extract needs from a
// raw gotd message: text_link/url entities, inline-keyboard button URLs, and
// a webpage-preview URL. Grounded on internal/telegramreader/reader.go's
// entity/button/webpage switch (extractDiscoveries), generalized from
// channel-discovery links to provider-link extraction.
func buildMetadata(msg *tg.Message) extract.Metadata {
	var meta extract.Metadata

	for _, e := range msg.Entities {
		switch ent := e.(type) {
		case *tg.MessageEntityTextURL:
			meta.Entities = append(meta.Entities, extract.TextEntity{URL: ent.URL})
		case *tg.MessageEntityURL:
			meta.Entities = append(meta.Entities, extract.TextEntity{
				Substring: utf16Substring(msg.Message, ent.Offset, ent.Length),
				IsBareURL: true,
			})
		}
	}

	if inline, ok := msg.ReplyMarkup.(*tg.ReplyInlineMarkup); ok {
		for _, row := range inline.Rows {
			var buttons []extract.Button

			for _, btn := range row.Buttons {
				switch b := btn.(type) {
				case *tg.KeyboardButtonURL:
					buttons = append(buttons, extract.Button{URL: b.URL})
				case *tg.KeyboardButtonWebView:
					buttons = append(buttons, extract.Button{URL: b.URL})
				}
			}

			if len(buttons) > 0 {
				meta.ButtonRows = append(meta.ButtonRows, buttons)
			}
		}
	}

	if webPageMedia, ok := msg.Media.(*tg.MessageMediaWebPage); ok {
		if webpage, ok := webPageMedia.Webpage.(*tg.WebPage); ok {
			meta.PreviewURL = webpage.URL
		}
	}

	return meta
}

// utf16Substring resolves a Telegram entity's UTF-16 offset/length (the unit
// Telegram reports spans in) against text, returning the covered substring.
func utf16Substring(text string, offset, length int) string {
	units := utf16.Encode([]rune(text))

	if offset < 0 || offset > len(units) {
		return ""
	}

	end := offset + length
	if end > len(units) {
		end = len(units)
	}

	if end < offset {
		return ""
	}

	return string(utf16.Decode(units[offset:end]))
}

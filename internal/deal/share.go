package deal

import (
	"fmt"
	"net/url"
	"strings"
)

const shareBaseURL = "https://wa.me/?text="

// ShareText builds the prefilled message for sharing a deal
func ShareText(d Deal) string {
	return fmt.Sprintf("¡Mira lo que encontré! %s en %s. Precio: %s. Link directo: %s",
		d.Title, d.Store, d.Price, d.URL)
}

// ShareURL returns the messaging link that opens a chat with the deal prefilled
func ShareURL(d Deal) string {
	// encodeURIComponent semantics: spaces as %20, not '+'
	encoded := strings.ReplaceAll(url.QueryEscape(ShareText(d)), "+", "%20")
	return shareBaseURL + encoded
}

package share

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders share links for movies as PNG QR codes.
type QRGenerator struct {
	baseURL string
}

func NewQRGenerator(baseURL string) *QRGenerator {
	return &QRGenerator{baseURL: strings.TrimRight(baseURL, "/")}
}

// ShareURL is the public link a QR code resolves to.
func (q *QRGenerator) ShareURL(movieCd string) string {
	return fmt.Sprintf("%s/movies/%s", q.baseURL, movieCd)
}

// GenerateMovieQR renders a 256px PNG QR for the movie's share link.
func (q *QRGenerator) GenerateMovieQR(movieCd string) ([]byte, error) {
	return qrcode.Encode(q.ShareURL(movieCd), qrcode.Medium, 256)
}

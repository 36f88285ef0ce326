package stegoapi

import "strings"

// Endpoint is a path on the steganography service.
type Endpoint string

const (
	EmbedEndpoint   Endpoint = "/api/encrypt"
	ExtractEndpoint Endpoint = "/api/decrypt"
)

// Form field names the service reads.
const (
	fieldOriginal  = "original"
	fieldCover     = "cover"
	fieldStego     = "stego"
	fieldSecretKey = "secret_key"
)

// Format joins the endpoint onto a server base URL.
func (e Endpoint) Format(server string) string {
	return strings.TrimSuffix(server, "/") + string(e)
}

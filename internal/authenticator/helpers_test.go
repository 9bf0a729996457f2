package authenticator

import "github.com/meshauth/authority-core/internal/cborcodec"

func decodeBody(data []byte, v interface{}) error {
	return cborcodec.Unmarshal(data, v)
}

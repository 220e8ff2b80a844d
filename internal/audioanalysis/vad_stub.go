//go:build !cgo || !webrtcvad

package audioanalysis

import "errors"

type vadProcessor struct{}

func newVAD(int) (*vadProcessor, error) {
	return nil, errors.New("webrtcvad unavailable (build with cgo and -tags webrtcvad)")
}

func (v *vadProcessor) Process(int, []byte) (bool, error) {
	return false, errors.New("webrtcvad unavailable (build with cgo and -tags webrtcvad)")
}

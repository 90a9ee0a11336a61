package http

import (
	"fmt"
	"io"
	"net/http"

	"k8s.io/apimachinery/pkg/util/json"
)

// StatusError is returned by a Client when the server answers with a status code outside of 2xx and 3xx.
type StatusError struct {
	Code    int
	Message string
}

func (err *StatusError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("recevied response with status code '%d'", err.Code)
	}

	return fmt.Sprintf("recevied response with status code '%d': %s", err.Code, err.Message)
}

func requestFailedError(err error) error {
	return fmt.Errorf("request failed: %w", err)
}

func responseCodeNotOk(code int) error {
	return &StatusError{Code: code}
}

func isResponseOk(response *http.Response) bool {
	return response.StatusCode >= 200 && response.StatusCode < 400
}

func unmarshalResponse(response *http.Response, obj interface{}) error {
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed reading response body: %w", err)
	}

	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("failed to unmarshal data to type '%T': %w", obj, err)
	}

	return nil
}

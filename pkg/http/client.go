package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/json"
)

type HealthRequest struct{}

type FilterRequest struct {
	Filter  string `json:"filter"`
	Records []any  `json:"records"`

	// Value asks for the value of the filter for each record rather than which records match.
	Value bool `json:"value,omitempty"`
}

type FilterResponse struct {
	ID       string   `json:"id"`
	Matches  []int    `json:"matches"`
	Records  []any    `json:"records"`
	Values   []any    `json:"values,omitempty"`
	Warnings []string `json:"warnings"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ClientOptions struct {
	Address url.URL
	Logger  *zap.SugaredLogger
}

type Client interface {
	Health(HealthRequest) (bool, error)

	// Filter asks the server to evaluate a filter against the request's records.
	Filter(FilterRequest) (FilterResponse, error)
}

type httpClient struct {
	ClientOptions

	client http.Client
}

func NewHttpClient(opts ClientOptions) (Client, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &httpClient{
		ClientOptions: opts,
		client:        http.Client{},
	}, nil
}

func (client httpClient) Health(HealthRequest) (bool, error) {
	client.Address.Path = "/health"

	response, err := client.client.Get(client.Address.String())
	if err != nil {
		return false, requestFailedError(err)
	}
	defer response.Body.Close()

	if !isResponseOk(response) {
		return false, responseCodeNotOk(response.StatusCode)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read health from '%s': %w", client.Address.String(), err)
	}

	switch string(data) {
	case healthOK:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected response from '%s': %s", client.Address.String(), string(data))
	}
}

func (client httpClient) Filter(request FilterRequest) (FilterResponse, error) {
	client.Address.Path = "/filter"

	body, err := json.Marshal(request)
	if err != nil {
		return FilterResponse{}, fmt.Errorf("could not marshal request: %w", err)
	}

	response, err := client.client.Post(client.Address.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		return FilterResponse{}, requestFailedError(err)
	}
	defer response.Body.Close()

	if !isResponseOk(response) {
		var errResponse ErrorResponse
		if err := unmarshalResponse(response, &errResponse); err != nil {
			return FilterResponse{}, responseCodeNotOk(response.StatusCode)
		}

		return FilterResponse{}, &StatusError{
			Code:    response.StatusCode,
			Message: errResponse.Error,
		}
	}

	var filterResponse FilterResponse
	if err := unmarshalResponse(response, &filterResponse); err != nil {
		return FilterResponse{}, err
	}

	client.Logger.Debugf("request '%s' matched %d records", filterResponse.ID, len(filterResponse.Matches))

	return filterResponse, nil
}

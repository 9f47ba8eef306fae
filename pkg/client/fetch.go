package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// errNullBody is wrapped in a ParseError when a typed fetch receives a bare
// JSON null.
var errNullBody = errors.New("body is null, want a JSON value of the declared shape")

// FetchData GETs address and decodes the body into generic JSON values
// (map[string]any, []any, float64, ...). A body that is not valid JSON is
// returned as a *ParseError without spending another attempt.
func (c *Client) FetchData(ctx context.Context, address string, maxAttempts int) (any, error) {
	body, err := c.get(ctx, address, maxAttempts)
	if err != nil {
		return nil, err
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, c.parseFailure(address, err)
	}
	return data, nil
}

// Fetch GETs address and decodes the body into T. After decoding, struct
// validation tags are checked; slices are validated element by element.
// A decode failure, a validation failure and a null body all yield a
// *ParseError.
func Fetch[T any](ctx context.Context, c *Client, address string, maxAttempts int) (T, error) {
	var out T

	body, err := c.get(ctx, address, maxAttempts)
	if err != nil {
		return out, err
	}

	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return out, c.parseFailure(address, errNullBody)
	}

	if err := json.Unmarshal(body, &out); err != nil {
		var zero T
		return zero, c.parseFailure(address, err)
	}

	if err := c.validateShape(out); err != nil {
		var zero T
		return zero, c.parseFailure(address, err)
	}

	return out, nil
}

func (c *Client) validateShape(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := c.validateShape(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	case reflect.Struct:
		return c.validate.Struct(rv.Interface())
	default:
		return nil
	}
}

func (c *Client) parseFailure(address string, err error) error {
	errorsTotal.WithLabelValues("parse").Inc()
	c.logger.Error().
		Err(err).
		Str("address", address).
		Msg("Error parsing response body")
	return &ParseError{Address: address, Err: err}
}

package req

import "encoding/json"

// JSONAlways decodes the body as JSON into T regardless of status.
// Decoding failures fail the send with a decode error.
func JSONAlways[T any]() ResponseAs[T] {
	return Map(BinaryAlways(), func(data []byte) (T, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return v, err
		}
		return v, nil
	})
}

// JSON decodes 2xx bodies as JSON into T and produces the error body
// as a Left text value on non-2xx, the usual split for REST APIs.
func JSON[T any]() ResponseAs[Either[string, T]] {
	return EitherOf(TextAlways(), JSONAlways[T]())
}

// JSONEither decodes 2xx bodies as JSON into T and non-2xx bodies as
// JSON into E, for APIs with a structured error envelope.
func JSONEither[E, T any]() ResponseAs[Either[E, T]] {
	return EitherOf(JSONAlways[E](), JSONAlways[T]())
}

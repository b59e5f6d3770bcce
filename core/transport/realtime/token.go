package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type sessionTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// sessionToken mints a short-lived session token when a token endpoint is
// configured, so the long-lived API key never rides on the socket itself.
// Without one, the API key is used directly.
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	if c.tokenEndpoint == "" {
		return c.apiKey, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
			return "mint realtime session token"
		}),
	)}

	response, err := client.Do(request)
	if err != nil {
		return "", fmt.Errorf("failed to request session token: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", response.StatusCode)
	}

	var token sessionTokenResponse
	if err := json.NewDecoder(response.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.Token == "" {
		return "", fmt.Errorf("token endpoint returned an empty token")
	}

	return token.Token, nil
}

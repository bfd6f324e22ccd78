package sources

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const analyticsScope = "https://www.googleapis.com/auth/analytics.readonly"

// AnalyticsTokens returns a token source for the GA4 Data API. With an empty
// path it falls back to application default credentials.
func AnalyticsTokens(ctx context.Context, credentialsPath string) (oauth2.TokenSource, error) {
	if credentialsPath == "" {
		ts, err := google.DefaultTokenSource(ctx, analyticsScope)
		if err != nil {
			return nil, fmt.Errorf("default analytics credentials: %w", err)
		}
		return ts, nil
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read analytics credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, analyticsScope)
	if err != nil {
		return nil, fmt.Errorf("parse analytics credentials: %w", err)
	}
	return creds.TokenSource, nil
}

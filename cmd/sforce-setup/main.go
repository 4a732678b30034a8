// Command sforce-setup runs the interactive OAuth2 authorization flow and
// writes the token file the s2f job needs. Run it once per deployment:
// visit the printed URL, authorize the connected app and paste the code
// from the redirect URL back here.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/futurice/s2f/pkg/config"
	"github.com/futurice/s2f/pkg/salesforce"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.RedirectURI == "" {
		fmt.Fprintln(os.Stderr, "SF_REDIRECT_URI is required for the setup flow")
		os.Exit(1)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     salesforce.OAuthEndpoint(cfg.LoginURL),
		Scopes:       salesforce.Scopes,
	}

	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Println()
	fmt.Println(authURL)
	fmt.Println()
	fmt.Printf("Go to the URL above and authorize the app. You will be redirected to %s with a &code=… in the URL.\n", cfg.RedirectURI)
	fmt.Print("Enter the code: ")

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read authorization code: %v\n", err)
		os.Exit(1)
	}

	tok, err := oauthCfg.Exchange(context.Background(), code)
	if err != nil {
		logger.Error("Token exchange failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Token exchange failed: %v\n", err)
		os.Exit(1)
	}

	token := salesforce.FromOAuth2(tok)
	if err := salesforce.SaveToken(cfg.TokenFile, token); err != nil {
		logger.Error("Failed to save token", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to save token: %v\n", err)
		os.Exit(1)
	}

	logger.Info("OAuth2 flow completed successfully",
		zap.String("token_file", cfg.TokenFile),
		zap.String("instance_url", token.InstanceURL))
	fmt.Printf("Token saved to %s\n", cfg.TokenFile)
}

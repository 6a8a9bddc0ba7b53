package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/dgtt-autoecole/api-backend/internal/crypto"
)

func cmdKeygen() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a session signing key for APP_KEY",
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer

			key, err := crypto.GenerateAppKey()
			if err != nil {
				return fmt.Errorf("failed to generate app key: %w", err)
			}

			// Sign and verify a throwaway session to check the key is usable
			keyBytes, err := crypto.DecodeAppKey(key)
			if err != nil {
				return err
			}
			sessionID := uuid.NewString()
			token, _, err := crypto.GenerateSessionJWT(sessionID, keyBytes, time.Minute)
			if err != nil {
				return fmt.Errorf("key self-test failed: %w", err)
			}
			claims, err := crypto.VerifySessionJWT(token, keyBytes)
			if err != nil {
				return fmt.Errorf("key self-test failed: %w", err)
			}
			if claims.SessionID != sessionID {
				return fmt.Errorf("key self-test failed: session ID mismatch")
			}

			fmt.Fprintln(w, "Add this to your .env file:")
			fmt.Fprintf(w, "APP_KEY=%s\n", key)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Keep this key secret and use a different key per environment.")
			fmt.Fprintln(w, "Rotating it signs every visitor out.")
			return nil
		},
	}
}

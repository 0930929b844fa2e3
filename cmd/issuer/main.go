// Command issuer manages the licensing authority's key material and signs
// license files.
//
// Usage:
//
//	issuer keygen -anchor license.pub -signing-key signing.key [-passphrase ...]
//	issuer issue -signing-key signing.key -user <uuid> -expiry 2030-01-01 -out license.dat
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"entitle/internal/keys"
	"entitle/internal/license"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("expected a subcommand: keygen or issue")
	}

	switch args[0] {
	case "keygen":
		return runKeygen(args[1:])
	case "issue":
		return runIssue(args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q: expected keygen or issue", args[0])
	}
}

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	keySize := fs.Int("key-size", 2048, "RSA key size in bits")
	anchorPath := fs.String("anchor", "license.pub", "output path for the trust anchor")
	signingKeyPath := fs.String("signing-key", "signing.key", "output path for the signing key")
	passphrase := fs.String("passphrase", "", "seal the signing key at rest with this passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pair, err := keys.Generate(*keySize, *anchorPath, *signingKeyPath)
	if err != nil {
		return err
	}

	if *passphrase != "" {
		sealed, err := keys.SealSigningKey(pair.SigningKeyPEM, *passphrase, nil)
		if err != nil {
			return fmt.Errorf("failed to seal signing key: %w", err)
		}
		if err := os.WriteFile(*signingKeyPath, sealed, 0600); err != nil {
			return fmt.Errorf("failed to write sealed signing key: %w", err)
		}
	}

	fmt.Printf("Trust anchor written to %s\n", *anchorPath)
	fmt.Printf("Signing key written to %s (sealed: %t)\n", *signingKeyPath, *passphrase != "")
	return nil
}

func runIssue(args []string) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	signingKeyPath := fs.String("signing-key", "signing.key", "path to the signing key")
	passphrase := fs.String("passphrase", "", "passphrase if the signing key is sealed")
	userID := fs.String("user", "", "licensed user ID (UUID)")
	expiry := fs.String("expiry", "", "license expiry date (YYYY-MM-DD)")
	backupWindow := fs.Duration("backup-window", 30*24*time.Hour, "offline grace window granted from issue time")
	outPath := fs.String("out", "license.dat", "output path for the license file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	uid, err := uuid.Parse(*userID)
	if err != nil {
		return fmt.Errorf("invalid -user: %w", err)
	}

	expiryDate, err := time.Parse("2006-01-02", *expiry)
	if err != nil {
		return fmt.Errorf("invalid -expiry: %w", err)
	}

	issuer, err := loadIssuer(*signingKeyPath, *passphrase)
	if err != nil {
		return err
	}

	envelope, err := issuer.Issue(uid, expiryDate, *backupWindow)
	if err != nil {
		return fmt.Errorf("failed to issue license: %w", err)
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode license: %w", err)
	}
	if err := os.WriteFile(*outPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write license file: %w", err)
	}

	fmt.Printf("License for %s written to %s (expires %s)\n", uid, *outPath, expiryDate.Format("2006-01-02"))
	return nil
}

// loadIssuer reads the signing key, unsealing it first when the file holds
// a sealed key rather than PEM.
func loadIssuer(path, passphrase string) (*license.Issuer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	if !bytes.Contains(data, []byte("-----BEGIN")) {
		if passphrase == "" {
			return nil, fmt.Errorf("signing key %s is sealed: provide -passphrase", path)
		}
		data, err = keys.UnsealSigningKey(data, passphrase, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to unseal signing key: %w", err)
		}
	}

	key, err := keys.ParseSigningKey(data)
	if err != nil {
		return nil, err
	}
	return license.NewIssuer(key), nil
}

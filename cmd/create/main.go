// Command create mints a signed bearer token for exercising the gateway
// locally. The secret must match the AUTH_SHARED_SECRET the gateway was
// started with.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func main() {
	var (
		name   string
		secret string
		expiry time.Duration
	)

	flag.StringVar(&name, "name", "", "customer display name (defaults to the customer id)")
	flag.StringVar(&secret, "secret", os.Getenv("AUTH_SHARED_SECRET"), "signing secret")
	flag.DurationVar(&expiry, "expiry", time.Hour, "token validity period")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: create [flags] <customer-id>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	customerID := flag.Arg(0)
	if name == "" {
		name = customerID
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "a signing secret is required: set -secret or AUTH_SHARED_SECRET")
		os.Exit(1)
	}

	token, err := createToken(customerID, name, secret, expiry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token for %s:\n\n%s\n\n", customerID, token)
	fmt.Printf("test with curl:\n\n")
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/test\n", token)
}

func createToken(customerID, customerName, secret string, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"customer_id":   customerID,
		"customer_name": customerName,
		"sub":           customerID,
		"iat":           now.Unix(),
		"exp":           now.Add(expiry).Unix(),
		"iss":           "tenantgate",
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

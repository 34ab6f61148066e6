package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookavail/libs/config"
	"github.com/md-rashed-zaman/bookavail/libs/grpcx"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/grpcserver"
)

// availability-query asks a running availability service for bookable days over gRPC
// and prints them as JSON.
func main() {
	var (
		addr       = flag.String("addr", config.String("AVAILABILITY_GRPC_ADDR", "localhost:9090"), "availability service gRPC address")
		customerID = flag.String("customer-id", "", "customer id")
		username   = flag.String("username", "", "customer username, used when customer-id is empty")
		products   = flag.String("products", "", "comma separated product ids")
		options    = flag.String("options", "", "comma separated product=variant option selections")
		fromDate   = flag.String("from", "", "first day, RFC 3339 or YYYY-MM-DD")
		shippingID = flag.String("shipping-id", "", "shipping to attach")
		timeout    = flag.Duration("timeout", 10*time.Second, "request timeout")
	)
	flag.Parse()

	req, err := buildRequest(*customerID, *username, *products, *options, *fromDate, *shippingID)
	if err != nil {
		fatal(err.Error())
	}

	conn, err := grpcx.Dial(*addr, grpcx.DialOptions{})
	if err != nil {
		fatal(err.Error())
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	days, err := grpcserver.NewClient(conn).Generate(ctx, req)
	if err != nil {
		fatal(err.Error())
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(days); err != nil {
		fatal(err.Error())
	}
}

func buildRequest(customerID, username, products, options, fromDate, shippingID string) (availability.Request, error) {
	req := availability.Request{
		CustomerID: strings.TrimSpace(customerID),
		Username:   strings.TrimSpace(username),
		ProductIDs: splitList(products),
		FromDate:   strings.TrimSpace(fromDate),
		ShippingID: strings.TrimSpace(shippingID),
	}
	for _, pair := range splitList(options) {
		product, variant, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(product) == "" || strings.TrimSpace(variant) == "" {
			return availability.Request{}, fmt.Errorf("option %q must be product=variant", pair)
		}
		if req.OptionIDs == nil {
			req.OptionIDs = map[string]string{}
		}
		req.OptionIDs[strings.TrimSpace(product)] = strings.TrimSpace(variant)
	}
	return req, req.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client/flags"
)

// FlagAPI is the base URL of the launchpad-api service
const FlagAPI = "api"

// DefaultAPIAddress matches the launchpad-api default listen port
const DefaultAPIAddress = "http://localhost:8080"

// launchpad-api routes that execute messages
const (
	RouteCreateFactory     = "/v1/factories"
	RouteLaunch            = "/v1/launch"
	RouteCreatePool        = "/v1/pools"
	RouteBuy               = "/v1/swap/buy"
	RouteSell              = "/v1/swap/sell"
	RouteClaimRoyalties    = "/v1/claims/royalties"
	RouteClaimProtocolFees = "/v1/claims/protocol"
	RouteSetPoolEnabled    = "/v1/pools/enabled"
)

const traderHeader = "X-Trader-Address"

var httpClient = &http.Client{Timeout: 30 * time.Second}

func addSubmitFlags(cmd *cobra.Command) {
	cmd.Flags().String(flags.FlagFrom, "", "Address executing the message")
	cmd.Flags().String(FlagAPI, DefaultAPIAddress, "Base URL of the launchpad-api service")
	_ = cmd.MarkFlagRequired(flags.FlagFrom)
}

// submit posts msg to the launchpad-api route and prints the response
func submit(cmd *cobra.Command, route string, msg interface{}) error {
	base, err := cmd.Flags().GetString(FlagAPI)
	if err != nil {
		return err
	}
	from, err := cmd.Flags().GetString(flags.FlagFrom)
	if err != nil {
		return err
	}

	bz, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, strings.TrimRight(base, "/")+route, bytes.NewReader(bz))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(traderHeader, from)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit to %s: %w", route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s failed with status %d: %s", route, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(out.Bytes())
	return err
}

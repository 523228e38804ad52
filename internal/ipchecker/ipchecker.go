// Package ipchecker extracts client IP addresses from HTTP requests and
// restricts internal endpoints to a trusted subnet.
package ipchecker

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todotracker/internal/logger"
	"github.com/patric-chuzhbe/todotracker/internal/models"
)

// IPChecker is responsible for extracting a client's IP address from
// an HTTP request and validating whether it belongs to a trusted subnet.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New creates a new IPChecker instance configured with a trusted subnet.
// An empty trustedSubnet yields a checker that trusts nobody.
//
// The trustedSubnet must be in CIDR notation (e.g., "192.168.1.0/24").
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{
			trustedSubnet: nil,
		}, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}
	return &IPChecker{
		trustedSubnet: allowedNet,
	}, nil
}

// Check verifies whether the given IP address belongs to the configured
// trusted subnet. If no trusted subnet is configured, it returns false.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP extracts the client's IP address from an HTTP request.
// The "X-Real-IP" and "X-Forwarded-For" headers are honoured only when the
// peer in RemoteAddr is itself inside the trusted subnet, i.e. a reverse
// proxy we run; otherwise anyone could claim a trusted address.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}
	peer := net.ParseIP(host)
	if !checker.Check(peer) {
		return peer, nil
	}

	ipStr := request.Header.Get("X-Real-IP")
	ip := net.ParseIP(ipStr)
	if ip != nil {
		return ip, nil
	}
	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		ip := net.ParseIP(strings.TrimSpace(ips[0]))
		if ip == nil {
			return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): malformed X-Forwarded-For %q", xff)
		}
		return ip, nil
	}

	return peer, nil
}

// IsTrustedSubnetEmpty returns true if the IPChecker was initialized
// without a trusted subnet.
func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}

// TrustedOnly answers 403 to every client outside the trusted subnet.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if checker.IsTrustedSubnetEmpty() {
			writeForbidden(response)
			return
		}

		clientIP, err := checker.GetClientIP(request)
		if err != nil {
			logger.Log.Debugln("cannot determine client IP", zap.Error(err))
			writeForbidden(response)
			return
		}
		if !checker.Check(clientIP) {
			writeForbidden(response)
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

func writeForbidden(response http.ResponseWriter) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(response).Encode(models.ErrorsResponse{Errors: []string{"Forbidden"}})
}

package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/vpetersson/ipgeolocation/pkg/lookup"
)

// BulkLimit caps the number of addresses in one geoip_bulk_lookup
// call. A larger batch is rejected wholesale.
const BulkLimit = 100

// Stable tool error codes.
const (
	CodeInvalidIP         = "INVALID_IP"
	CodePrivateIP         = "PRIVATE_IP"
	CodeNotFound          = "NOT_FOUND"
	CodeBulkLimitExceeded = "BULK_LIMIT_EXCEEDED"
	CodeInvalidLatitude   = "INVALID_LATITUDE"
	CodeInvalidLongitude  = "INVALID_LONGITUDE"
	CodeStdioNoCallerIP   = "STDIO_NO_CALLER_IP"
	CodeLookupFailed      = "LOOKUP_FAILED"
)

// RegisterLookupTools adds the lookup tools to reg, all backed by res.
func RegisterLookupTools(reg *Registry, res *lookup.Resolver) {
	reg.RegisterTool(&Tool{
		Name:        "geoip_lookup",
		Description: "Look up geolocation data for an IP address.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ip": map[string]any{
					"type":        "string",
					"description": "IPv4 or IPv6 address to look up",
				},
				"format": map[string]any{
					"type":        "string",
					"description": "Response detail: simple (default) or full",
					"enum":        []any{"simple", "full"},
				},
			},
			"required": []any{"ip"},
		},
		Handler: func(ctx context.Context, sess *Session, args map[string]any) *ToolResult {
			ip, _ := args["ip"].(string)
			return lookupIP(ctx, res, ip, wantFull(args))
		},
	})

	reg.RegisterTool(&Tool{
		Name:        "geoip_bulk_lookup",
		Description: fmt.Sprintf("Look up geolocation data for up to %d IP addresses in one call.", BulkLimit),
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ips": map[string]any{
					"type":        "array",
					"description": "IP addresses to look up",
					"items":       map[string]any{"type": "string"},
				},
				"format": map[string]any{
					"type": "string",
					"enum": []any{"simple", "full"},
				},
			},
			"required": []any{"ips"},
		},
		Handler: func(ctx context.Context, sess *Session, args map[string]any) *ToolResult {
			raw, _ := args["ips"].([]any)
			return bulkLookup(ctx, res, raw, wantFull(args))
		},
	})

	reg.RegisterTool(&Tool{
		Name:        "geoip_lookup_self",
		Description: "Look up geolocation data for the calling client's IP address.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"format": map[string]any{
					"type": "string",
					"enum": []any{"simple", "full"},
				},
			},
		},
		Handler: func(ctx context.Context, sess *Session, args map[string]any) *ToolResult {
			ip, ok := sess.CallerIP()
			if !ok {
				return ErrorResult(CodeStdioNoCallerIP, "caller IP is not available on this transport")
			}
			return lookupIP(ctx, res, ip, wantFull(args))
		},
	})

	reg.RegisterTool(&Tool{
		Name:        "timezone_lookup",
		Description: "Resolve the IANA timezone for a coordinate pair.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"latitude": map[string]any{
					"type":        "number",
					"description": "Latitude in [-90, 90]",
				},
				"longitude": map[string]any{
					"type":        "number",
					"description": "Longitude in [-180, 180]",
				},
			},
			"required": []any{"latitude", "longitude"},
		},
		Handler: func(ctx context.Context, sess *Session, args map[string]any) *ToolResult {
			lat, _ := args["latitude"].(float64)
			lon, _ := args["longitude"].(float64)
			rec, err := res.ResolveTimezone(ctx, lat, lon)
			if err != nil {
				return lookupError(err)
			}
			return TextResult(rec)
		},
	})
}

func wantFull(args map[string]any) bool {
	f, _ := args["format"].(string)
	return f == "full"
}

func lookupIP(ctx context.Context, res *lookup.Resolver, ip string, full bool) *ToolResult {
	if full {
		rec, err := res.ResolveIPFull(ctx, ip)
		if err != nil {
			return lookupError(err)
		}
		return TextResult(rec)
	}
	rec, err := res.ResolveIP(ctx, ip)
	if err != nil {
		return lookupError(err)
	}
	return TextResult(rec)
}

// bulkEntryError is one failed input of a bulk call.
type bulkEntryError struct {
	IP      string `json:"ip"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func bulkLookup(ctx context.Context, res *lookup.Resolver, raw []any, full bool) *ToolResult {
	if len(raw) > BulkLimit {
		return ErrorResult(CodeBulkLimitExceeded,
			fmt.Sprintf("%d addresses exceed the limit of %d", len(raw), BulkLimit))
	}

	results := make([]any, 0, len(raw))
	errs := make([]bulkEntryError, 0)
	for _, v := range raw {
		ip, _ := v.(string)

		var rec any
		var err error
		if full {
			rec, err = res.ResolveIPFull(ctx, ip)
		} else {
			rec, err = res.ResolveIP(ctx, ip)
		}
		if err != nil {
			code, msg := classifyLookupErr(err)
			errs = append(errs, bulkEntryError{IP: ip, Code: code, Message: msg})
			continue
		}
		results = append(results, rec)
	}

	return TextResult(map[string]any{
		"results": results,
		"errors":  errs,
	})
}

func lookupError(err error) *ToolResult {
	code, msg := classifyLookupErr(err)
	return ErrorResult(code, msg)
}

func classifyLookupErr(err error) (code, msg string) {
	var ve *lookup.ValidationError
	switch {
	case errors.As(err, &ve):
		switch ve.Field {
		case "latitude":
			return CodeInvalidLatitude, ve.Error()
		case "longitude":
			return CodeInvalidLongitude, ve.Error()
		default:
			return CodeInvalidIP, ve.Error()
		}
	case errors.Is(err, lookup.ErrPrivateAddr):
		return CodePrivateIP, err.Error()
	case errors.Is(err, lookup.ErrNotFound):
		return CodeNotFound, err.Error()
	default:
		return CodeLookupFailed, err.Error()
	}
}

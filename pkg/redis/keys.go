package redis

import "strings"

const defaultNamespace = "vendora"

// keyspace builds colon-separated keys under one namespace.
type keyspace string

func (k keyspace) key(kind string, parts ...string) string {
	ns := strings.TrimSpace(string(k))
	if ns == "" {
		ns = defaultNamespace
	}
	b := strings.Builder{}
	b.WriteString(ns)
	b.WriteByte(':')
	b.WriteString(kind)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.keys.key("idempotency", scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.keys.key("rate_limit", scope)
}

// SessionKey tracks one issued token by its jti.
func (c *Client) SessionKey(jti string) string {
	return c.keys.key("session", jti)
}

func (c *Client) LockKey(name string) string {
	return c.keys.key("lock", name)
}

// ConfirmMarkerKey guards confirmation of one gateway payment.
func (c *Client) ConfirmMarkerKey(gatewayPaymentID string) string {
	return c.keys.key("confirm", gatewayPaymentID)
}

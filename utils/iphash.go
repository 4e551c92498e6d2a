// utils/iphash.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"strings"
)

var ipHashSalt string

func init() {
	ipHashSalt = os.Getenv("IP_HASH_SALT")
	if ipHashSalt == "" {
		ipHashSalt = "pitch-referral-dev-salt"
		log.Println("⚠️  IP_HASH_SALT not set, using development salt — set it in production")
	}
}

// HashIP returns an opaque salted SHA-256 digest of a client address.
// Raw IPs must never reach storage; every write path goes through here.
// Empty or obvious placeholder inputs hash to "".
func HashIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" || ip == "unknown" || ip == "client" {
		return ""
	}
	sum := sha256.Sum256([]byte(ipHashSalt + ":" + ip))
	return hex.EncodeToString(sum[:])
}

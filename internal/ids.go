package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// NewSessionID returns a unique session id of the form session_<unix ms>_<random>
func NewSessionID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), random[:9])
}

// NewMessageID returns a short unique message id
func NewMessageID() string {
	return shortuuid.New()
}

package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

// initializeSID initializes the shortid generator once
func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short human-facing document number.
// Total length is capped at 12 characters, e.g. `IN-XYZ12A8Q`.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	availableLen := 12 - len(prefix)
	if availableLen <= 0 {
		return ""
	}

	if len(id) > availableLen {
		id = id[:availableLen]
	}

	return strings.ToUpper(fmt.Sprintf("%s%s", prefix, id))
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_ACCOUNT         = "acct"
	UUID_PREFIX_INVOICE         = "inv"
	UUID_PREFIX_CREDIT_NOTE     = "cn"
	UUID_PREFIX_BILLING_CARD    = "card"
	UUID_PREFIX_CHARGE          = "chrg"
	UUID_PREFIX_AUTHORIZATION   = "auth"
	UUID_PREFIX_PAYMENT_RECEIPT = "rcpt"
	UUID_PREFIX_ACTIVITY        = "act"
)

const (
	SHORT_ID_PREFIX_INVOICE         = "IN-"
	SHORT_ID_PREFIX_CREDIT_NOTE     = "CN-"
	SHORT_ID_PREFIX_PAYMENT_RECEIPT = "RE-"
)

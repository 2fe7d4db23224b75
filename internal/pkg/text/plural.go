package text

import (
	"strconv"
	"strings"
	"sync"

	"github.com/gertd/go-pluralize"
)

var (
	pluralOnce   sync.Once
	pluralClient *pluralize.Client
)

func client() *pluralize.Client {
	pluralOnce.Do(func() {
		pluralClient = pluralize.NewClient()
	})
	return pluralClient
}

// Plural returns the plural form of an item name.
func Plural(name string) string {
	return client().Plural(name)
}

// Count renders "1 Name" or "N Names".
func Count(name string, n int) string {
	if n == 1 {
		return "1 " + client().Singular(name)
	}
	return strconv.Itoa(n) + " " + client().Plural(name)
}

// Either picks the singular or plural verb phrase for n items.
func Either(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// JoinList joins items as "a, b <conj> c".
func JoinList(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	head := strings.Join(items[:len(items)-1], ", ")
	return head + " " + conj + " " + items[len(items)-1]
}

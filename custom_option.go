package hwdecoder

import (
	"fmt"
	"strings"
)

// DictionaryItem is a key/value option passed to the library (demuxer or device options).
type DictionaryItem struct {
	Key   string `json:"key"   yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

type DictionaryItems []DictionaryItem

// ParseDictionaryItem parses "key=value".
func ParseDictionaryItem(s string) (DictionaryItem, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return DictionaryItem{}, fmt.Errorf("expected 'key=value', got '%s'", s)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return DictionaryItem{}, fmt.Errorf("empty key in '%s'", s)
	}
	return DictionaryItem{Key: key, Value: value}, nil
}

func ParseDictionaryItems(in []string) (DictionaryItems, error) {
	var result DictionaryItems
	for _, s := range in {
		item, err := ParseDictionaryItem(s)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

// Get returns the last value set for key.
func (items DictionaryItems) Get(key string) (string, bool) {
	for idx := len(items) - 1; idx >= 0; idx-- {
		if items[idx].Key == key {
			return items[idx].Value, true
		}
	}
	return "", false
}

// Without returns a copy of items with every entry of key removed.
func (items DictionaryItems) Without(key string) DictionaryItems {
	result := make(DictionaryItems, 0, len(items))
	for _, item := range items {
		if item.Key != key {
			result = append(result, item)
		}
	}
	return result
}

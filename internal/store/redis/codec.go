package redis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/MrSnakeDoc/varlink/internal/domain"
)

// encodeFields flattens a record into HSET arguments. Lists are stored as
// JSON, numbers in base 10. Field order is sorted for stable commands.
func encodeFields(rec domain.Record) ([]any, error) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(rec)*2)
	for _, k := range keys {
		v, err := encodeValue(rec[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		args = append(args, k, v)
	}
	return args, nil
}

func encodeValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// decodeFields lifts a hash into a raw record. Values stay strings; the
// domain decoder converts them.
func decodeFields(hash map[string]string) domain.Record {
	rec := make(domain.Record, len(hash))
	for k, v := range hash {
		rec[k] = v
	}
	return rec
}

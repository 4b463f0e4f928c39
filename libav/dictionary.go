package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

// newDictionary returns nil if there are no items; the caller frees a non-nil result.
func newDictionary(
	ctx context.Context,
	items hwdecoder.DictionaryItems,
) (*astiav.Dictionary, error) {
	if len(items) == 0 {
		return nil, nil
	}

	dict := astiav.NewDictionary()
	for _, opt := range items {
		logger.Debugf(ctx, "dictionary['%s'] = '%s'", opt.Key, opt.Value)
		if err := dict.Set(opt.Key, opt.Value, 0); err != nil {
			dict.Free()
			return nil, fmt.Errorf("unable to set '%s' to '%s': %w", opt.Key, opt.Value, err)
		}
	}
	return dict, nil
}

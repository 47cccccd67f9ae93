package skiptrace

import (
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/pkg/apify"
)

// FileSink returns an apify raw-exchange sink that appends one JSON line
// per exchange to path. Write failures are logged and otherwise ignored.
func FileSink(path string, log *zap.Logger) func(apify.Exchange) {
	var mu sync.Mutex
	return func(ex apify.Exchange) {
		line, err := json.Marshal(ex)
		if err != nil {
			log.Warn("skiptrace: marshal raw exchange", zap.Error(err))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn("skiptrace: open raw log", zap.String("path", path), zap.Error(err))
			return
		}
		defer f.Close() //nolint:errcheck
		if _, err := f.Write(append(line, '\n')); err != nil {
			log.Warn("skiptrace: write raw log", zap.String("path", path), zap.Error(err))
		}
	}
}

// Package store selects the template store backend from configuration.
package store

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/config"
	"github.com/xob0t/GoMockup/pkg/store/filesystem"
	"github.com/xob0t/GoMockup/pkg/store/memory"
	"github.com/xob0t/GoMockup/pkg/store/sqlite"
	"github.com/xob0t/GoMockup/pkg/template"
)

// Open returns the template store named by cfg.TemplateStore.
func Open(cfg *config.Config) (template.Store, error) {
	return OpenKind(cfg.TemplateStore, cfg.TemplateStorePath)
}

// OpenKind opens a store by backend name: "memory", "filesystem" or "sqlite".
func OpenKind(kind, path string) (template.Store, error) {
	var (
		s   template.Store
		err error
	)

	storeField := logrus.Fields{"store": kind}

	switch kind {
	case "filesystem":
		storeField["path"] = path
		s, err = filesystem.NewStore(path)
	case "sqlite":
		storeField["dataSourceName"] = path
		s, err = sqlite.NewStore(path)
	case "memory", "":
		storeField["store"] = "in-memory"
		s = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown template store %q", kind)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(storeField).Info("Use template store")
	return s, nil
}

package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"test12/internal/store"
)

func init() {
	m.Register(func(app core.App) error {
		_, err := app.DB().NewQuery(store.EngineStateSchema).Execute()
		return err
	}, func(app core.App) error {
		_, err := app.DB().NewQuery("DROP TABLE IF EXISTS engine_state").Execute()
		return err
	})
}

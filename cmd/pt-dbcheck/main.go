package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"powertools/internal/shared"
	"powertools/internal/store"
)

func main() {
	cfg, err := shared.LoadStoreConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreURI, cfg.StoreDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close(ctx)

	fmt.Printf("Store: %s (%s)\n", cfg.StoreDriver, cfg.StoreDatabase)
	fmt.Println("Collections:")
	for _, c := range store.Collections {
		var docs []map[string]any
		if err := st.Find(ctx, c, nil, &docs); err != nil {
			log.Fatal().Err(err).Str("collection", string(c)).Msg("find")
		}
		fmt.Printf(" - %-12s %d\n", c, len(docs))
	}

	var admins []shared.UserProfile
	if err := st.Find(ctx, store.Users, store.Filter{"role": shared.RoleAdmin}, &admins); err != nil {
		log.Fatal().Err(err).Msg("find admins")
	}
	fmt.Println("Admins:", len(admins))
}

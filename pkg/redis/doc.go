// Package redis wraps the go-redis client with retrying connection setup
// and a health-check probe.
//
// The same client instance typically backs both the connection-status store
// (connstatus.RedisStore, which needs keyspace access and pub/sub) and the
// session revocation list (authsession.RedisRevoker), so Connect is called
// once at startup and the client is shared:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store, err := connstatus.NewRedisStore(client)
//	if err != nil {
//		return err
//	}
//	revoker, err := authsession.NewRedisRevoker(client)
//	if err != nil {
//		return err
//	}
package redis

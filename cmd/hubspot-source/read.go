package hubspot_source

import (
	"encoding/json"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/cmd/internal"
	"github.com/planetscale/connect/hubspot/lib"
	"github.com/spf13/cobra"
)

var (
	readSourceConfigFilePath string
	readSourceCatalogPath    string
	stateFilePath            string
	stateRedisURL            string
	stateRedisKey            string
	envFilePath              string
)

func init() {
	rootCmd.AddCommand(ReadCommand(DefaultHelper()))
}

func ReadCommand(ch *Helper) *cobra.Command {
	readCmd := &cobra.Command{
		Use:   "read",
		Short: "Converts HubSpot objects into Singer messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if readSourceConfigFilePath == "" {
				return errors.Errorf("Please pass path to a valid source config file via the [%v] argument", "config")
			}

			// a missing .env file is not an error, the credential may come from the config
			_ = godotenv.Load(envFilePath)

			source, err := parseSource(ch.FileReader, readSourceConfigFilePath)
			if err != nil {
				return err
			}

			serializer := ch.Serializer
			if serializer == nil {
				logger := internal.NewZapLogger(cmd.ErrOrStderr(), source.LogLevel)
				defer logger.Sync()
				serializer = internal.NewSerializer(cmd.OutOrStdout(), logger)
			}

			if source.Credential() == "" {
				serializer.Log(internal.LOGLEVEL_WARN, "No HubSpot credential configured, requests will be unauthenticated")
			}

			catalog := internal.DefaultCatalog()
			if readSourceCatalogPath != "" {
				catalog, err = readCatalog(ch.FileReader, readSourceCatalogPath)
				if err != nil {
					serializer.Error("Unable to read catalog")
					return err
				}
			}
			if len(catalog.Streams) == 0 {
				serializer.Log(internal.LOGLEVEL_ERROR, "catalog has no streams")
				return nil
			}

			var store internal.StateStore = internal.FileStateStore{
				Path:     stateFilePath,
				ReadFile: ch.FileReader.ReadFile,
			}
			if stateRedisURL != "" {
				store, err = internal.NewRedisStateStore(ctx, stateRedisURL, stateRedisKey)
				if err != nil {
					return err
				}
			}
			defer func() {
				if err := store.Close(); err != nil {
					serializer.Error(fmt.Sprintf("Unable to close state store, failed with %v", err))
				}
			}()

			state, err := store.Load(ctx)
			if err != nil {
				serializer.Error(fmt.Sprintf("Unable to read state : %v", err))
				return err
			}

			var storage lib.Storage
			if source.BatchConfig != nil {
				storage, err = ch.NewStorage(source.BatchConfig.Storage)
				if err != nil {
					return err
				}
			}

			syncer := &internal.Syncer{
				Source:     source,
				Client:     ch.NewClient(source.ClientConfig()),
				Serializer: serializer,
				Storage:    storage,
				StateStore: store,
			}
			if _, err := syncer.Sync(ctx, catalog, state); err != nil {
				serializer.Error(err.Error())
				return err
			}
			return nil
		},
	}
	readCmd.Flags().StringVar(&readSourceCatalogPath, "catalog", "", "Path to the Singer catalog, every stream is read when omitted")
	readCmd.Flags().StringVar(&readSourceConfigFilePath, "config", "", "Path to the HubSpot source configuration")
	readCmd.Flags().StringVar(&stateFilePath, "state", "", "Path to the Singer state to resume from")
	readCmd.Flags().StringVar(&stateRedisURL, "state-redis", "", "redis:// URL to load and save state, instead of --state")
	readCmd.Flags().StringVar(&stateRedisKey, "state-redis-key", "", "Key holding the state in redis")
	readCmd.Flags().StringVar(&envFilePath, "env-file", ".env", "Optional dotenv file providing HUBSPOT_HAPIKEY")
	return readCmd
}

func readCatalog(reader FileReader, path string) (c internal.Catalog, err error) {
	b, err := reader.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "unable to read catalog %v", path)
	}
	err = json.Unmarshal(b, &c)
	return c, errors.Wrap(err, "unable to parse catalog")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/swabcity/catalogadmin/internal/catalog"
	"github.com/swabcity/catalogadmin/internal/config"
	"github.com/swabcity/catalogadmin/internal/imagecodec"
	"github.com/swabcity/catalogadmin/internal/settings"
	"github.com/swabcity/catalogadmin/internal/store"
)

const usage = `usage: catalogadmin <command> [flags]

commands:
  list           fetch and print the product catalog
  add            create a product (-name, -price, -currency, -description, -image)
  update         replace a product (-id plus the same flags as add)
  delete         remove a product (-id)
  encode-image   compress an image file into an uploadable payload (-file)
  configure      persist settings (-domain, -api-key)
`

func getConfigPath() string {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// Default to config.yaml in current working directory
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

func loadConfig() *config.Config {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default()
		}
		log.Printf("failed to load config from %s: %v", configPath, err)
		panic(err)
	}
	return cfg
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := loadConfig()
	kv, err := settings.NewKeyValueStore(cfg.SettingsStore.Type, cfg.SettingsStore.ConnectionString)
	if err != nil {
		log.Fatalf("failed to open settings store: %v", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Printf("settings store close error: %v", err)
		}
	}()

	ctx := context.Background()
	cfgSettings := settings.New(kv)
	if err := cfgSettings.Load(ctx); err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	productStore := store.New(&http.Client{}, cfgSettings)

	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "list":
		err = runList(ctx, productStore)
	case "add":
		err = runAdd(ctx, productStore, args)
	case "update":
		err = runUpdate(ctx, productStore, args)
	case "delete":
		err = runDelete(ctx, productStore, args)
	case "encode-image":
		err = runEncodeImage(args)
	case "configure":
		err = runConfigure(ctx, cfgSettings, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	printLogTail(productStore)
	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

func runList(ctx context.Context, productStore *store.Store) error {
	if err := productStore.FetchProducts(ctx); err != nil {
		return err
	}
	for _, p := range productStore.Products() {
		id := "-"
		if p.ID != nil {
			id = fmt.Sprintf("%d", *p.ID)
		}
		image := "no image"
		if p.HasImage() {
			image = "has image"
		}
		fmt.Printf("%s\t%s\t%.2f %s\t%s\t(%s)\n", id, p.Name, p.Price, p.Currency, p.Description, image)
	}
	return nil
}

func productFlags(fs *flag.FlagSet) (name, currency, description, imagePath *string, price *float64) {
	name = fs.String("name", "", "product name")
	price = fs.Float64("price", 0, "product price")
	currency = fs.String("currency", "USD", "currency code")
	description = fs.String("description", "", "product description")
	imagePath = fs.String("image", "", "path to an image file to attach")
	return
}

func runAdd(ctx context.Context, productStore *store.Store, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name, currency, description, imagePath, price := productFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := encodeImageFile(*imagePath)
	if err != nil {
		return err
	}
	product := catalog.Product{
		Name:        *name,
		Price:       *price,
		Currency:    *currency,
		Description: *description,
		Image:       payload,
	}
	if err := productStore.AddProduct(ctx, product); err != nil {
		return err
	}
	// Re-fetch so the printed catalog carries the server-assigned id
	return runList(ctx, productStore)
}

func runUpdate(ctx context.Context, productStore *store.Store, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.Int64("id", 0, "product id")
	name, currency, description, imagePath, price := productFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := encodeImageFile(*imagePath)
	if err != nil {
		return err
	}
	product := catalog.Product{
		ID:          id,
		Name:        *name,
		Price:       *price,
		Currency:    *currency,
		Description: *description,
		Image:       payload,
	}
	return productStore.UpdateProduct(ctx, product)
}

func runDelete(ctx context.Context, productStore *store.Store, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "product id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return productStore.DeleteProduct(ctx, *id)
}

func runEncodeImage(args []string) error {
	fs := flag.NewFlagSet("encode-image", flag.ExitOnError)
	file := fs.String("file", "", "path to the image file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	payload, err := encodeImageFile(*file)
	if err != nil {
		return err
	}
	if payload == "" {
		return fmt.Errorf("no image file given")
	}
	fmt.Println(payload)
	return nil
}

func runConfigure(ctx context.Context, cfgSettings *settings.Settings, args []string) error {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	domain := fs.String("domain", "", "backend base URL")
	apiKey := fs.String("api-key", "", "admin bearer token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *domain != "" {
		if err := cfgSettings.SetAPIDomain(ctx, *domain); err != nil {
			return err
		}
	}
	if *apiKey != "" {
		if err := cfgSettings.SetAdminAPIKey(ctx, *apiKey); err != nil {
			return err
		}
	}
	fmt.Printf("domain: %s\napi key set: %t\n", cfgSettings.APIDomain(), cfgSettings.AdminAPIKey() != "")
	return nil
}

// encodeImageFile loads and compresses the image at path into an uploadable
// payload. An empty path yields an empty payload (product without image).
func encodeImageFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}
	bitmap, err := imagecodec.NewLoader().Load(data)
	if err != nil {
		return "", err
	}
	payload, _, err := imagecodec.Default().Encode(bitmap)
	if err != nil {
		return "", err
	}
	return payload, nil
}

func printLogTail(productStore *store.Store) {
	for _, entry := range productStore.Log() {
		log.Print(entry)
	}
}

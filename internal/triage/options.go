// Package app provides the pawsense triage service application.
package app

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/pawsense/triage/internal/triage/biz"
	httpopts "github.com/pawsense/triage/pkg/options/http"
	llmopts "github.com/pawsense/triage/pkg/options/llm"
	logopts "github.com/pawsense/triage/pkg/options/logger"
	milvusopts "github.com/pawsense/triage/pkg/options/milvus"
	redisopts "github.com/pawsense/triage/pkg/options/redis"
)

// Options contains all triage service options.
type Options struct {
	// HTTP contains HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains the optional vector database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Redis contains the verdict-cache redis configuration.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`

	// Embedding contains embedding provider configuration.
	Embedding *llmopts.Options `json:"embedding" mapstructure:"embedding"`

	// Chat contains chat provider configuration.
	Chat *llmopts.Options `json:"chat" mapstructure:"chat"`

	// Triage contains pipeline-specific configuration.
	Triage *TriageOptions `json:"triage" mapstructure:"triage"`

	// Cache contains verdict-cache configuration.
	Cache *CacheOptions `json:"cache" mapstructure:"cache"`
}

// TriageOptions contains pipeline-specific configuration.
type TriageOptions struct {
	// DiseaseFile is the path to the disease knowledge base CSV.
	DiseaseFile string `json:"disease-file" mapstructure:"disease-file"`

	// AliasFile is the path to the symptom alias JSON map.
	AliasFile string `json:"alias-file" mapstructure:"alias-file"`

	// CodesFile is the path to the canonical symptom code JSON list.
	CodesFile string `json:"codes-file" mapstructure:"codes-file"`

	// MatchThreshold is the inclusive minimum match percentage.
	MatchThreshold float64 `json:"match-threshold" mapstructure:"match-threshold"`

	// TopN caps the candidate list.
	TopN int `json:"top-n" mapstructure:"top-n"`

	// SemanticThreshold is the minimum cosine similarity for semantic term
	// resolution.
	SemanticThreshold float64 `json:"semantic-threshold" mapstructure:"semantic-threshold"`

	// TermCollection is the vector collection holding symptom terms.
	TermCollection string `json:"term-collection" mapstructure:"term-collection"`

	// IndexConcurrency is the worker count for building the term index.
	IndexConcurrency int `json:"index-concurrency" mapstructure:"index-concurrency"`

	// OfflineMode disables the model providers entirely; the pipeline runs
	// regex-only extraction with default verdicts.
	OfflineMode bool `json:"offline-mode" mapstructure:"offline-mode"`
}

// CacheOptions contains verdict-cache configuration.
type CacheOptions struct {
	// Enabled turns the verdict cache on.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is the cache entry lifetime.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix namespaces the cache keys.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewTriageOptions creates default pipeline options.
func NewTriageOptions() *TriageOptions {
	return &TriageOptions{
		DiseaseFile:       "data/diseases.csv",
		AliasFile:         "data/symptom_aliases.json",
		CodesFile:         "data/symptom_codes.json",
		MatchThreshold:    biz.DefaultMatchThreshold,
		TopN:              biz.DefaultTopN,
		SemanticThreshold: biz.DefaultSemanticThreshold,
		TermCollection:    "symptom_terms",
		IndexConcurrency:  4,
	}
}

// NewCacheOptions creates default verdict-cache options.
func NewCacheOptions() *CacheOptions {
	return &CacheOptions{
		Enabled:   false,
		TTL:       1 * time.Hour,
		KeyPrefix: "triage:verdict:",
	}
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	embeddingOpts := llmopts.NewOptions()
	embeddingOpts.Model = "nomic-embed-text"

	chatOpts := llmopts.NewOptions()
	chatOpts.Model = "llama3.1:8b"

	return &Options{
		HTTP:      httpopts.NewOptions(),
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Redis:     redisopts.NewOptions(),
		Embedding: embeddingOpts,
		Chat:      chatOpts,
		Triage:    NewTriageOptions(),
		Cache:     NewCacheOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Redis.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.addTriageFlags(fs)
	o.addCacheFlags(fs)
}

func (o *Options) addTriageFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Triage.DiseaseFile, "triage.disease-file", o.Triage.DiseaseFile, "Path to the disease knowledge base CSV")
	fs.StringVar(&o.Triage.AliasFile, "triage.alias-file", o.Triage.AliasFile, "Path to the symptom alias JSON map")
	fs.StringVar(&o.Triage.CodesFile, "triage.codes-file", o.Triage.CodesFile, "Path to the symptom code JSON list")
	fs.Float64Var(&o.Triage.MatchThreshold, "triage.match-threshold", o.Triage.MatchThreshold, "Inclusive minimum match percentage")
	fs.IntVar(&o.Triage.TopN, "triage.top-n", o.Triage.TopN, "Maximum number of candidate diagnoses")
	fs.Float64Var(&o.Triage.SemanticThreshold, "triage.semantic-threshold", o.Triage.SemanticThreshold, "Minimum cosine similarity for semantic term resolution")
	fs.StringVar(&o.Triage.TermCollection, "triage.term-collection", o.Triage.TermCollection, "Vector collection for symptom terms")
	fs.IntVar(&o.Triage.IndexConcurrency, "triage.index-concurrency", o.Triage.IndexConcurrency, "Worker count for building the term index")
	fs.BoolVar(&o.Triage.OfflineMode, "triage.offline-mode", o.Triage.OfflineMode, "Disable model providers and run the degraded pipeline")
}

func (o *Options) addCacheFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Cache.Enabled, "cache.enabled", o.Cache.Enabled, "Enable the verification verdict cache")
	fs.DurationVar(&o.Cache.TTL, "cache.ttl", o.Cache.TTL, "Verdict cache TTL")
	fs.StringVar(&o.Cache.KeyPrefix, "cache.key-prefix", o.Cache.KeyPrefix, "Verdict cache key prefix")
}

// Validate validates the options.
func (o *Options) Validate() error {
	if err := o.Log.Validate(); err != nil {
		return err
	}
	if err := o.HTTP.Validate(); err != nil {
		return err
	}
	for _, errs := range [][]error{o.Milvus.Validate(), o.Redis.Validate()} {
		for _, err := range errs {
			return err
		}
	}
	if !o.Triage.OfflineMode {
		for _, errs := range [][]error{o.Embedding.Validate(), o.Chat.Validate()} {
			for _, err := range errs {
				return err
			}
		}
	}

	if o.Triage.DiseaseFile == "" {
		return fmt.Errorf("triage.disease-file is required")
	}
	if o.Triage.AliasFile == "" || o.Triage.CodesFile == "" {
		return fmt.Errorf("triage.alias-file and triage.codes-file are required")
	}
	if o.Triage.MatchThreshold <= 0 || o.Triage.MatchThreshold > 100 {
		return fmt.Errorf("triage.match-threshold must be in (0, 100]")
	}
	if o.Triage.TopN <= 0 {
		return fmt.Errorf("triage.top-n must be positive")
	}
	if o.Triage.SemanticThreshold <= 0 || o.Triage.SemanticThreshold > 1 {
		return fmt.Errorf("triage.semantic-threshold must be in (0, 1]")
	}
	if o.Triage.IndexConcurrency <= 0 {
		return fmt.Errorf("triage.index-concurrency must be positive")
	}
	return nil
}

// Complete completes the options with defaults.
func (o *Options) Complete() error {
	return o.HTTP.Complete()
}

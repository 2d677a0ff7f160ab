package lambdaboot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/fpang/reel-studio/internal/config"
	"github.com/fpang/reel-studio/internal/store"
)

type fakeSSM struct {
	value string
	err   error
	calls int
	name  string
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.name = aws.ToString(in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)}}, nil
}

func TestLoadGeminiKey(t *testing.T) {
	ctx := context.Background()

	t.Run("env key wins", func(t *testing.T) {
		f := &fakeSSM{value: "from-ssm"}
		g := config.Gemini{APIKey: "from-env", SSMParam: "/reel/key"}
		if err := LoadGeminiKey(ctx, f, &g); err != nil {
			t.Fatal(err)
		}
		if g.APIKey != "from-env" || f.calls != 0 {
			t.Errorf("APIKey = %q, calls = %d", g.APIKey, f.calls)
		}
	})

	t.Run("no param configured", func(t *testing.T) {
		f := &fakeSSM{}
		g := config.Gemini{}
		if err := LoadGeminiKey(ctx, f, &g); err != nil {
			t.Fatal(err)
		}
		if g.APIKey != "" || f.calls != 0 {
			t.Errorf("APIKey = %q, calls = %d", g.APIKey, f.calls)
		}
	})

	t.Run("loaded from SSM", func(t *testing.T) {
		f := &fakeSSM{value: "secret"}
		g := config.Gemini{SSMParam: "/reel/key"}
		if err := LoadGeminiKey(ctx, f, &g); err != nil {
			t.Fatal(err)
		}
		if g.APIKey != "secret" || f.name != "/reel/key" {
			t.Errorf("APIKey = %q, param = %q", g.APIKey, f.name)
		}
	})

	t.Run("SSM error", func(t *testing.T) {
		f := &fakeSSM{err: errors.New("access denied")}
		g := config.Gemini{SSMParam: "/reel/key"}
		if err := LoadGeminiKey(ctx, f, &g); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty parameter", func(t *testing.T) {
		f := &fakeSSM{value: ""}
		g := config.Gemini{SSMParam: "/reel/key"}
		if err := LoadGeminiKey(ctx, f, &g); err == nil {
			t.Error("expected error for empty parameter")
		}
	})
}

func TestNewStore(t *testing.T) {
	jobsFile := filepath.Join(t.TempDir(), "jobs.json")

	st, closer, err := NewStore(config.Store{Backend: config.StoreFile, JobsFile: jobsFile}, aws.Config{})
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	if fs, ok := st.(*store.FileStore); !ok || fs.Path() != jobsFile {
		t.Errorf("file backend = %T", st)
	}
	if err := closer.Close(); err != nil {
		t.Error(err)
	}

	st, _, err = NewStore(config.Store{Backend: config.StoreDynamoDB, DynamoTable: "reel-jobs"}, aws.Config{Region: "us-east-1"})
	if err != nil {
		t.Fatalf("dynamo store: %v", err)
	}
	if ds, ok := st.(*store.DynamoStore); !ok || ds.TableName() != "reel-jobs" {
		t.Errorf("dynamo backend = %T", st)
	}

	if _, _, err := NewStore(config.Store{Backend: config.StoreDynamoDB}, aws.Config{}); err == nil {
		t.Error("dynamo store without table should fail")
	}

	st, closer, err = NewStore(config.Store{Backend: config.StoreRedis, RedisAddr: "localhost:6379", RedisKey: "k"}, aws.Config{})
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	if _, ok := st.(*store.RedisStore); !ok {
		t.Errorf("redis backend = %T", st)
	}
	closer.Close()

	if _, _, err := NewStore(config.Store{Backend: "sqlite"}, aws.Config{}); err == nil {
		t.Error("unknown backend should fail")
	}
}

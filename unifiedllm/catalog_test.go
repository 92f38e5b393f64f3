package unifiedllm

import "testing"

func TestGetModelInfo(t *testing.T) {
	// By exact ID.
	info := GetModelInfo("gpt-5.2")
	if info == nil {
		t.Fatal("expected to find gpt-5.2")
	}
	if info.Provider != "openai" {
		t.Errorf("expected provider %q, got %q", "openai", info.Provider)
	}
	if !info.SupportsTools {
		t.Error("expected supports_tools = true")
	}

	// By alias.
	info = GetModelInfo("gemini-pro")
	if info == nil {
		t.Fatal("expected to find model by alias 'gemini-pro'")
	}
	if info.ID != "gemini-3-pro-preview" {
		t.Errorf("expected id %q, got %q", "gemini-3-pro-preview", info.ID)
	}

	// Unknown model.
	if info = GetModelInfo("nonexistent-model"); info != nil {
		t.Errorf("expected nil for unknown model, got %v", info)
	}
}

func TestListModels(t *testing.T) {
	all := ListModels("")
	if len(all) != len(Models) {
		t.Errorf("expected %d models, got %d", len(Models), len(all))
	}

	openai := ListModels("openai")
	if len(openai) != 2 {
		t.Errorf("expected 2 OpenAI models, got %d", len(openai))
	}
	for _, m := range openai {
		if m.Provider != "openai" {
			t.Errorf("expected provider openai, got %q", m.Provider)
		}
	}

	google := ListModels("google")
	if len(google) != 2 {
		t.Errorf("expected 2 Google models, got %d", len(google))
	}

	if empty := ListModels("nonexistent"); len(empty) != 0 {
		t.Errorf("expected 0 models for nonexistent provider, got %d", len(empty))
	}
}

func TestGetLatestModel(t *testing.T) {
	info := GetLatestModel("openai")
	if info == nil {
		t.Fatal("expected to find latest OpenAI model")
	}
	if info.ID != "gpt-5.2" {
		t.Errorf("expected %q, got %q", "gpt-5.2", info.ID)
	}

	info = GetLatestModel("google")
	if info == nil {
		t.Fatal("expected to find latest Google model")
	}
	if info.ID != "gemini-3-pro-preview" {
		t.Errorf("expected %q, got %q", "gemini-3-pro-preview", info.ID)
	}

	if info = GetLatestModel("nonexistent"); info != nil {
		t.Errorf("expected nil for nonexistent provider, got %v", info)
	}
}

func TestModelInfoFields(t *testing.T) {
	for _, m := range Models {
		if m.ID == "" {
			t.Error("model ID must not be empty")
		}
		if m.Provider == "" {
			t.Errorf("model %q: provider must not be empty", m.ID)
		}
		if m.DisplayName == "" {
			t.Errorf("model %q: display_name must not be empty", m.ID)
		}
		if m.ContextWindow <= 0 {
			t.Errorf("model %q: context_window must be positive", m.ID)
		}
	}
}

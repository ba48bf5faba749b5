package cache

import "testing"

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{
			name:        "without paramsKey",
			serviceName: "annotation",
			objectType:  "session",
			identifier:  "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			paramsKey:   nil,
			expectedKey: "annoforge:annotation:session:01ARZ3NDEKTSV4RRFFQ69G5FAV",
		},
		{
			name:        "with empty paramsKey",
			serviceName: "annotation",
			objectType:  "session",
			identifier:  "123",
			paramsKey:   []string{},
			expectedKey: "annoforge:annotation:session:123",
		},
		{
			name:        "with one paramsKey",
			serviceName: "records",
			objectType:  "export",
			identifier:  "all",
			paramsKey:   []string{"v1"},
			expectedKey: "annoforge:records:export:all:v1",
		},
		{
			name:        "with multiple paramsKey",
			serviceName: "records",
			objectType:  "export",
			identifier:  "all",
			paramsKey:   []string{"p1", "p2", "p3"},
			expectedKey: "annoforge:records:export:all:p1_p2_p3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actualKey := GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...)
			if actualKey != tt.expectedKey {
				t.Errorf("GenerateCacheKey() = %v, want %v", actualKey, tt.expectedKey)
			}
		})
	}
}

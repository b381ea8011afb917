package rules

import "testing"

func TestLoopAccessOutsideLoop(t *testing.T) {
	ctx := newFileContext(t, "Component.java", `
class ListComponent {
    void render(Session session) {
        Node node = session.getNode("/content/documents");
        show(node);
    }
}
`)
	findings, err := (LoopAccess{}).Inspect(ctx)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d: %v", len(findings), findings)
	}
}

func TestLoopAccessInsideForLoop(t *testing.T) {
	ctx := newFileContext(t, "Component.java", `
class ListComponent {
    void render(Session session, List<String> paths) {
        for (String path : paths) {
            Node node = session.getNode(path);
            show(node);
        }
    }
}
`)
	findings, err := (LoopAccess{}).Inspect(ctx)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(findings), findings)
	}
	f := findings[0]
	if f.RuleID != "performance.repository-access-in-loop" {
		t.Errorf("rule id = %q", f.RuleID)
	}
	if f.Metadata["call"] != "getNode" || f.Metadata["loopKind"] != "for-each" || f.Metadata["depth"] != "1" {
		t.Errorf("metadata = %v", f.Metadata)
	}
}

func TestLoopAccessReportsInnermostLoop(t *testing.T) {
	ctx := newFileContext(t, "Component.java", `
class ListComponent {
    void render(Session session, List<String> paths) {
        for (String path : paths) {
            while (hasMore()) {
                Node node = session.getNode(path);
                show(node);
            }
        }
    }
}
`)
	findings, err := (LoopAccess{}).Inspect(ctx)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(findings), findings)
	}
	if findings[0].Metadata["loopKind"] != "while" || findings[0].Metadata["depth"] != "2" {
		t.Errorf("metadata = %v", findings[0].Metadata)
	}
}

func TestLoopAccessIgnoresUnlistedCalls(t *testing.T) {
	ctx := newFileContext(t, "Component.java", `
class ListComponent {
    void render(List<String> paths) {
        for (String path : paths) {
            format(path);
        }
    }
}
`)
	findings, err := (LoopAccess{}).Inspect(ctx)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d: %v", len(findings), findings)
	}
}

func TestLoopAccessGoForLoop(t *testing.T) {
	ctx := newFileContext(t, "list.go", `package list

func render(s *Session, paths []string) {
	for _, p := range paths {
		node := s.getNode(p)
		show(node)
	}
}
`)
	findings, err := (LoopAccess{}).Inspect(ctx)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(findings), findings)
	}
	if findings[0].Metadata["loopKind"] != "for" {
		t.Errorf("loopKind = %q", findings[0].Metadata["loopKind"])
	}
}

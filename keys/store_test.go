package keys

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeyStore_InitDeriveExportList(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	root, rootPub, err := GenerateKeypair(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}

	pubHex, path, err := ks.InitializeRootKey("alice", root, false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if pubHex != "6d6caac248af96f6afa7f904f550253a0f3ef3f5aa2fe6838a95b216691468e2" {
		t.Fatalf("unexpected root pub %s", pubHex)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 key file, got %v", info.Mode().Perm())
	}

	if _, _, err := ks.InitializeRootKey("alice", root, false); err == nil {
		t.Fatalf("expected refusal to overwrite without force")
	}

	rolePub, _, err := ks.DeriveKeyFromRole("alice", "poster", false)
	if err != nil {
		t.Fatalf("DeriveKeyFromRole: %v", err)
	}
	if rolePub == pubHex {
		t.Fatalf("role key must differ from root key")
	}

	exported, err := ks.ExportPublicKey("alice", "poster")
	if err != nil {
		t.Fatalf("ExportPublicKey: %v", err)
	}
	if exported != rolePub {
		t.Fatalf("export mismatch: %s vs %s", exported, rolePub)
	}

	sk, err := ks.LoadSecret("", "", "", filepath.Join(ks.Directory, "alice", "root.key"))
	if err != nil {
		t.Fatalf("LoadSecret key-file: %v", err)
	}
	if sk.PublicKey() != rootPub {
		t.Fatalf("loaded key mismatch")
	}

	list, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(list) != 1 || list[0].Identifier != "alice" || list[0].PublicKey != pubHex {
		t.Fatalf("unexpected list %+v", list)
	}
	if len(list[0].Roles) != 1 || list[0].Roles[0] != "poster" {
		t.Fatalf("unexpected roles %+v", list[0].Roles)
	}
}

func TestDeriveRoleSecret_Deterministic(t *testing.T) {
	root, _, err := GenerateKeypair(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	a, err := DeriveRoleSecret(root, "approver")
	if err != nil {
		t.Fatalf("DeriveRoleSecret: %v", err)
	}
	b, err := DeriveRoleSecret(root, "approver")
	if err != nil {
		t.Fatalf("DeriveRoleSecret: %v", err)
	}
	if a.Hex() != b.Hex() {
		t.Fatalf("expected deterministic derivation")
	}
	c, err := DeriveRoleSecret(root, "issuer")
	if err != nil {
		t.Fatalf("DeriveRoleSecret: %v", err)
	}
	if a.Hex() == c.Hex() {
		t.Fatalf("expected different roles to derive different keys")
	}
	if _, err := DeriveRoleSecret(root, "bad role"); err == nil {
		t.Fatalf("expected invalid role error")
	}
}

func TestKeyStore_ListMissingDirectory(t *testing.T) {
	ks := &KeyStore{Directory: filepath.Join(t.TempDir(), "absent")}
	list, err := ks.ListKeys()
	if err != nil || list != nil {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
	if _, err := ks.LoadSecret("", "", "", ""); err == nil {
		t.Fatalf("expected no-signer error")
	}
}

//go:build ignore

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/godror/godror"
	"github.com/google/uuid"
)

func main() {
	host := envOrDefault("ORACLE_HOST", "localhost")
	port := envOrDefault("ORACLE_PORT", "1521")
	service := envOrDefault("ORACLE_SERVICE", "ORCL")
	user := os.Getenv("ORACLE_USER")
	password := os.Getenv("ORACLE_PASSWORD")

	if user == "" || password == "" {
		log.Fatal("ORACLE_USER and ORACLE_PASSWORD are required")
	}

	dsn := fmt.Sprintf(`user="%s" password="%s" connectString="%s:%s/%s"`,
		user, password, host, port, service)

	db, err := sql.Open("godror", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("Connected to Oracle database")

	// Default tenant_id - can be overridden via command line
	tenantID := "tenant_demo"
	if len(os.Args) > 1 {
		tenantID = os.Args[1]
	}
	fmt.Printf("Using tenant_id: %s\n", tenantID)

	printCounts(ctx, db, tenantID)

	authorID := uuid.NewString()
	if err := insertDocuments(ctx, db, tenantID, authorID); err != nil {
		log.Fatalf("Failed to insert documents: %v", err)
	}

	fmt.Println("\n✓ Seed data inserted successfully!")
	printCounts(ctx, db, tenantID)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type seedDocument struct {
	title       string
	docType     string
	sequential  bool
	signers     []seedSigner
	expiresDays int
}

type seedSigner struct {
	email string
	name  string
	order int
}

var seedDocuments = []seedDocument{
	{
		title:      "Master Service Agreement",
		docType:    "CONTRACT",
		sequential: true,
		signers: []seedSigner{
			{email: "legal@acme.example", name: "Dana Reyes", order: 1},
			{email: "cfo@acme.example", name: "Sam Okafor", order: 2},
		},
		expiresDays: 30,
	},
	{
		title:      "Mutual NDA",
		docType:    "NDA",
		sequential: false,
		signers: []seedSigner{
			{email: "partner@vendor.example", name: "Lee Zhang", order: 1},
			{email: "ops@vendor.example", name: "Noa Levi", order: 2},
		},
		expiresDays: 14,
	},
	{
		title:       "Employment Offer Letter",
		docType:     "AGREEMENT",
		sequential:  true,
		signers:     []seedSigner{{email: "newhire@mail.example", name: "Ira Moss", order: 1}},
		expiresDays: 7,
	},
}

func insertDocuments(ctx context.Context, db *sql.DB, tenantID, authorID string) error {
	docQuery := `
		INSERT INTO qs_documents (
			id, tenant_id, title, description, author_id, status, doc_type,
			sequential_signing, enable_watermark, extensions_version, version,
			prepared_at, expires_at
		) VALUES (:1, :2, :3, :4, :5, 'PENDING', :6, :7, 0, 1, 1, :8, :9)`

	signerQuery := `
		INSERT INTO qs_signers (
			id, document_id, email, name, sign_order, status, created_at
		) VALUES (:1, :2, :3, :4, :5, 'PENDING', :6)`

	now := time.Now()
	for _, doc := range seedDocuments {
		docID := uuid.NewString()
		expiresAt := now.AddDate(0, 0, doc.expiresDays)

		_, err := db.ExecContext(ctx, docQuery,
			docID, tenantID, doc.title, "seeded for local development",
			authorID, doc.docType, boolToInt(doc.sequential), now, expiresAt,
		)
		if err != nil {
			return fmt.Errorf("insert document %q: %w", doc.title, err)
		}

		for _, s := range doc.signers {
			_, err := db.ExecContext(ctx, signerQuery,
				uuid.NewString(), docID, s.email, s.name, s.order, now,
			)
			if err != nil {
				return fmt.Errorf("insert signer %q: %w", s.email, err)
			}
		}

		fmt.Printf("  seeded %q with %d signer(s)\n", doc.title, len(doc.signers))
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func printCounts(ctx context.Context, db *sql.DB, tenantID string) {
	var docs, signers int

	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM qs_documents WHERE tenant_id = :1`, tenantID).Scan(&docs); err != nil {
		log.Printf("count documents: %v", err)
		return
	}
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM qs_signers s
		 JOIN qs_documents d ON s.document_id = d.id
		 WHERE d.tenant_id = :1`, tenantID).Scan(&signers); err != nil {
		log.Printf("count signers: %v", err)
		return
	}

	fmt.Printf("Current counts: %d documents, %d signers\n", docs, signers)
}

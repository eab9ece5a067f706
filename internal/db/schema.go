package db

// schemaSQL contains the database schema initialization SQL. The single
// format verb is the embedding index dimension.
const schemaSQL = `
    -- ==========================================================================
    -- DOCUMENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS document SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS client_id ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS filename ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS storage_path ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS type ON document TYPE string DEFAULT "other";
    DEFINE FIELD IF NOT EXISTS status ON document TYPE string DEFAULT "uploaded";
    DEFINE FIELD IF NOT EXISTS meta ON document TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON document TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS document_client ON document FIELDS client_id;
    DEFINE INDEX IF NOT EXISTS document_status ON document FIELDS status;

    -- ==========================================================================
    -- DOC_CHUNK TABLE (embedded document slices)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS doc_chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS document_id ON doc_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS chunk_index ON doc_chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS chunk_text ON doc_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON doc_chunk TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created_at ON doc_chunk TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS doc_chunk_document ON doc_chunk FIELDS document_id;
    DEFINE INDEX IF NOT EXISTS doc_chunk_embedding ON doc_chunk FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
    DEFINE ANALYZER IF NOT EXISTS doc_chunk_analyzer TOKENIZERS class FILTERS lowercase, ascii, snowball(english);
    DEFINE INDEX IF NOT EXISTS doc_chunk_text_ft ON doc_chunk FIELDS chunk_text FULLTEXT ANALYZER doc_chunk_analyzer BM25;

    -- ==========================================================================
    -- TRANSACTION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS transaction SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS client_id ON transaction TYPE string;
    DEFINE FIELD IF NOT EXISTS document_id ON transaction TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS source ON transaction TYPE string ASSERT $value IN ["bank", "invoice"];
    DEFINE FIELD IF NOT EXISTS txn_date ON transaction TYPE datetime;
    DEFINE FIELD IF NOT EXISTS amount ON transaction TYPE float;
    DEFINE FIELD IF NOT EXISTS description ON transaction TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS counterparty ON transaction TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS reference_id ON transaction TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS meta ON transaction TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON transaction TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS transaction_client_source ON transaction FIELDS client_id, source;
    DEFINE INDEX IF NOT EXISTS transaction_document ON transaction FIELDS document_id;

    -- ==========================================================================
    -- GST_SUMMARY TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS gst_summary SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS client_id ON gst_summary TYPE string;
    DEFINE FIELD IF NOT EXISTS document_id ON gst_summary TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS period ON gst_summary TYPE string;
    DEFINE FIELD IF NOT EXISTS taxable_value ON gst_summary TYPE float;
    DEFINE FIELD IF NOT EXISTS tax_amount ON gst_summary TYPE float;
    DEFINE FIELD IF NOT EXISTS meta ON gst_summary TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON gst_summary TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS gst_summary_client ON gst_summary FIELDS client_id;

    -- ==========================================================================
    -- ISSUE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS issue SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS client_id ON issue TYPE string;
    DEFINE FIELD IF NOT EXISTS run_id ON issue TYPE string;
    DEFINE FIELD IF NOT EXISTS severity ON issue TYPE string ASSERT $value IN ["low", "med", "high"];
    DEFINE FIELD IF NOT EXISTS category ON issue TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON issue TYPE string;
    DEFINE FIELD IF NOT EXISTS details_json ON issue TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS status ON issue TYPE string DEFAULT "open" ASSERT $value IN ["open", "accepted", "resolved"];
    DEFINE FIELD IF NOT EXISTS created_at ON issue TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS issue_client ON issue FIELDS client_id;
    DEFINE INDEX IF NOT EXISTS issue_run ON issue FIELDS run_id;

    -- ==========================================================================
    -- RECONCILIATION_RUN TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS reconciliation_run SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS client_id ON reconciliation_run TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON reconciliation_run TYPE string DEFAULT "pending";
    DEFINE FIELD IF NOT EXISTS started_at ON reconciliation_run TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS ended_at ON reconciliation_run TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS metrics_json ON reconciliation_run TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS error_message ON reconciliation_run TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON reconciliation_run TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS run_client ON reconciliation_run FIELDS client_id;

    -- ==========================================================================
    -- REPORT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS report SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS client_id ON report TYPE string;
    DEFINE FIELD IF NOT EXISTS run_id ON report TYPE string;
    DEFINE FIELD IF NOT EXISTS type ON report TYPE string ASSERT $value IN ["working_papers", "compliance_summary"];
    DEFINE FIELD IF NOT EXISTS content_md ON report TYPE string;
    DEFINE FIELD IF NOT EXISTS content_pdf_url ON report TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON report TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS report_run ON report FIELDS run_id;
`

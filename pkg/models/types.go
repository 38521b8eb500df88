package models

import (
	"time"
)

/*
LOAD → types simples pour les lignes brutes lues depuis la base de données.
*/

// OrderLine représente une ligne de fait de vente jointe à la dimension client.
type OrderLine struct {
	CustomerID   string
	CustomerName string
	OrderID      string
	OrderDate    time.Time
	TotalAmount  float64
}

// BasketLine représente une ligne de fait de vente jointe à la dimension produit.
type BasketLine struct {
	OrderID     string
	ProductName string
}

/*
COMPUTE → résultats RFM
*/

// Segment est le libellé attribué à un triplet de scores.
type Segment string

const (
	SegmentChampions   Segment = "Champions"
	SegmentLoyal       Segment = "Loyal Customers"
	SegmentAtRisk      Segment = "At Risk"
	SegmentHibernating Segment = "Hibernating"
)

// Segments liste les segments dans l'ordre de priorité des règles.
var Segments = []Segment{SegmentChampions, SegmentLoyal, SegmentAtRisk, SegmentHibernating}

// RFMRecord contient les métriques et scores d'un client distinct.
type RFMRecord struct {
	CustomerID   string
	CustomerName string
	Recency      int     // jours depuis la dernière commande
	Frequency    int     // nombre de commandes distinctes
	Monetary     float64 // somme des montants
	RScore       int
	FScore       int
	MScore       int
	RFMScore     string // ex: "555", uniquement pour le reporting
	Segment      Segment
}

// SegmentSummary est la ligne de validation : dépense moyenne par segment.
type SegmentSummary struct {
	Segment     Segment `json:"segment"`
	Customers   int     `json:"customers"`
	AvgMonetary float64 `json:"avg_monetary"`
}

// RFMResult regroupe la sortie du moteur RFM pour une exécution.
type RFMResult struct {
	AnalysisDate time.Time
	Records      []RFMRecord
	Segments     []SegmentSummary
}

/*
COMPUTE → résultats panier
*/

// Itemset est un ensemble de produits fréquent (noms triés).
type Itemset struct {
	Items   []string `json:"items"`
	Support float64  `json:"support"`
	Count   int      `json:"count"`
}

// Rule est une règle d'association antécédent → conséquent.
type Rule struct {
	Antecedent        []string
	Consequent        []string
	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	Conviction        float64 // +Inf quand Confidence == 1
}

// BasketResult regroupe la sortie du moteur panier.
type BasketResult struct {
	Orders   int
	Products int
	Itemsets []Itemset
	Rules    []Rule
}

/*
CONFIG → paramètres globaux
*/

// Queries contient les deux requêtes de jointure du chargeur.
type Queries struct {
	Orders string `mapstructure:"orders"`
	Basket string `mapstructure:"basket"`
}

// Config contient les paramètres passés aux étapes du pipeline.
type Config struct {
	DSN             string  `mapstructure:"dsn"`
	MinSupport      float64 `mapstructure:"min_support"`
	LiftThreshold   float64 `mapstructure:"lift_threshold"`
	QuantileCount   int     `mapstructure:"quantile_count"`
	ResultTableName string  `mapstructure:"result_table_name"`
	Queries         Queries `mapstructure:"queries"`
	BatchSize       int     `mapstructure:"batch_size"`
	SampleRows      int     `mapstructure:"sample_rows"`
	TopRules        int     `mapstructure:"top_rules"`
	ExportDir       string  `mapstructure:"export_dir"`
	DryRun          bool    `mapstructure:"dry_run"`
	LogLevel        string  `mapstructure:"log_level"`
	Progress        bool    `mapstructure:"progress"`
}

// Package kind defines the closed set of entity kinds the store understands
// and the marker filenames that declare them.
//
// A directory is an entity only because one reserved marker file sits among
// its immediate children. Taxonomy holds the kind<->marker table (the default
// table or one loaded from configuration) and Classify inspects a directory
// against it. Two markers in one directory is reported as ErrAmbiguous rather
// than resolved by iteration order.
package kind

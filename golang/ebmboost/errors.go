// Package ebmboost is the outer boosting driver built around golang/ebmcore: dataset loading,
// bootstrap bag sampling, the round loop that drives the pair splitter over residuals, and model
// persistence/rendering. Shaped after EBooster/EMatrix/OneTree's round loop and persistence.
package ebmboost

import "log"

// HandleError is called immediately after every fallible I/O or library call - file open/close,
// JSON decode/encode, graphviz render, npy read - matching a pervasive
// ebl.HandleError call-site pattern, which is used throughout that package but never defined in
// it.
func HandleError(err error) {
	if err != nil {
		log.Panic(err)
	}
}

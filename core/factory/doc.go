// Package factory provides a small generic registry used to instantiate
// modules from configuration. A module is a type string plus a map of raw
// settings; factories decode the settings into typed structs with Decode and
// return the concrete implementation. Metrics sinks and evaluation archives
// are built this way.
//
//	reg := factory.NewRegistry[evallog.Store]()
//	reg.Register("jsonl", func(conf map[string]any) (evallog.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return evallog.NewJSONLStore(c.Path)
//	})
package factory

package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/goccy/go-graphviz"
	"github.com/sbinet/npyio"

	"github.com/tarstars/ebmcore/golang/ebmboost"
	"github.com/tarstars/ebmcore/golang/ebmcore"
)

func decodeConfig(srcConfig string, out interface{}) {
	file, err := os.Open(srcConfig)
	ebmboost.HandleError(err)
	defer func() { ebmboost.HandleError(file.Close()) }()

	decoder := json.NewDecoder(file)
	ebmboost.HandleError(decoder.Decode(out))
}

// FeatureConfig names one discretized feature column by its dataset DataIndex and its number of
// distinct bin states, the two facts NewFeatureCombination needs to size the combined grid.
type FeatureConfig struct {
	DataIndex int `json:"data_index"`
	CStates   int `json:"c_states"`
}

// ComboConfig is one monitored feature pair - the booster tries every listed combo each round and
// keeps the best. The pair splitter accepts only two-feature combos; any other feature count
// aborts training.
type ComboConfig struct {
	Features []FeatureConfig `json:"features"`
}

func buildCombos(combos []ComboConfig) ([]*ebmcore.FeatureCombination, error) {
	out := make([]*ebmcore.FeatureCombination, 0, len(combos))
	for _, c := range combos {
		features := make([]ebmcore.Feature, len(c.Features))
		for i, f := range c.Features {
			features[i] = ebmcore.Feature{CStates: f.CStates, DataIndex: f.DataIndex}
		}
		combo, err := ebmcore.NewFeatureCombination(features...)
		if err != nil {
			return nil, err
		}
		out = append(out, combo)
	}
	return out, nil
}

type TestConfig struct {
	Description     string `json:"description"`
	FileNameBinTest string `json:"filename_test_bins"`
	FileNameTarget  string `json:"filename_test_target"`
}

type TrainConfig struct {
	FileNameBinTrain string        `json:"filename_train_bins"`
	FileNameTarget   string        `json:"filename_train_target"`
	Tests            []TestConfig  `json:"tests"`
	FileNameModel    string        `json:"filename_model"`
	Combos           []ComboConfig `json:"combos"`
	NStages          int           `json:"n_stages"`
	LearningRate     float64       `json:"learning_rate"`
	Classification   bool          `json:"classification"`
	CVectorLength    int           `json:"c_vector_length"`
	ThreadsNum       int           `json:"threads_num"`
}

func train(srcConfig string) {
	var trainConfig TrainConfig
	decodeConfig(srcConfig, &trainConfig)

	trainSet, err := ebmboost.ReadDataset(trainConfig.FileNameBinTrain, trainConfig.FileNameTarget)
	ebmboost.HandleError(err)

	var printDatasets []*ebmboost.Dataset
	for _, testConfig := range trainConfig.Tests {
		ds, err := ebmboost.ReadDataset(testConfig.FileNameBinTest, testConfig.FileNameTarget)
		ebmboost.HandleError(err)
		ds.SetDescription(testConfig.Description)
		printDatasets = append(printDatasets, ds)
	}

	combos, err := buildCombos(trainConfig.Combos)
	ebmboost.HandleError(err)

	cVectorLength := trainConfig.CVectorLength
	if cVectorLength == 0 {
		cVectorLength = 1
	}

	var loss ebmboost.Loss = ebmboost.MseLoss{}
	if trainConfig.Classification {
		loss = ebmboost.LogLoss{}
	}

	booster, err := ebmboost.NewBooster(ebmboost.BoosterParams{
		Combos:         combos,
		Train:          trainSet,
		PrintDatasets:  printDatasets,
		NStages:        trainConfig.NStages,
		LearningRate:   trainConfig.LearningRate,
		Classification: trainConfig.Classification,
		CVectorLength:  cVectorLength,
		Loss:           loss,
		ThreadsNum:     trainConfig.ThreadsNum,
	})
	ebmboost.HandleError(err)

	booster.Model.Save(trainConfig.FileNameModel)
}

type PredictConfig struct {
	FileNameBinFeatures string `json:"filename_feature_bins"`
	ModelFileName       string `json:"filename_model"`
	PredictionFileName  string `json:"filename_target"`
	CVectorLength       int    `json:"c_vector_length"`
}

func predict(srcConfig string) {
	var predictConfig PredictConfig
	decodeConfig(srcConfig, &predictConfig)

	features, err := ebmboost.ReadFeatureDataset(predictConfig.FileNameBinFeatures)
	ebmboost.HandleError(err)

	model, err := ebmboost.LoadModel(predictConfig.ModelFileName)
	ebmboost.HandleError(err)

	cVectorLength := predictConfig.CVectorLength
	if cVectorLength == 0 {
		cVectorLength = 1
	}

	prediction := model.PredictValue(features, cVectorLength)

	dst, err := os.Create(predictConfig.PredictionFileName)
	ebmboost.HandleError(err)
	defer func() { ebmboost.HandleError(dst.Close()) }()

	ebmboost.HandleError(npyio.Write(dst, prediction))
}

type LcurveConfig struct {
	ModelFileName         string `json:"filename_model"`
	LearningCurveFileName string `json:"filename_learning_curve"`
}

func lcurve(srcConfig string) {
	var lcurveConfig LcurveConfig
	decodeConfig(srcConfig, &lcurveConfig)

	model, err := ebmboost.LoadModel(lcurveConfig.ModelFileName)
	ebmboost.HandleError(err)

	model.DumpLearningCurves(lcurveConfig.LearningCurveFileName)
}

type GraphConfig struct {
	ModelFileName     string `json:"filename_model"`
	PicturesDirectory string `json:"pictures_directory"`
	FigureType        string `json:"figure_type"`
}

func graph(srcConfig string) {
	var graphConfig GraphConfig
	decodeConfig(srcConfig, &graphConfig)

	model, err := ebmboost.LoadModel(graphConfig.ModelFileName)
	ebmboost.HandleError(err)

	format := graphviz.SVG
	if graphConfig.FigureType == "png" {
		format = graphviz.PNG
	}

	for _, entry := range model.Combos {
		if len(entry.Tensor.Dims) != 2 {
			continue
		}
		combo, err := ebmcore.NewFeatureCombination(entry.Features...)
		ebmboost.HandleError(err)

		graphViz, g, err := ebmboost.RenderPairSplit(entry.Tensor, combo)
		ebmboost.HandleError(err)

		outPath := graphConfig.PicturesDirectory + "/" + entry.Key + "." + graphConfig.FigureType
		ebmboost.HandleError(graphViz.RenderFilename(g, format, outPath))
	}
}

func main() {
	runMode := flag.String("mode", "train", "you can select either 'train', 'predict', 'lcurve' or 'graph' modes")
	config := flag.String("config", "ebmtrain_config.json", "a config file for the run of the program")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")

	flag.Parse()

	dispatch := map[string]func(string){
		"train":   train,
		"predict": predict,
		"lcurve":  lcurve,
		"graph":   graph,
	}
	runFn, ok := dispatch[*runMode]
	if !ok {
		log.Fatalf("ebmtrain: unknown mode %q", *runMode)
	}
	runFn(*config)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		ebmboost.HandleError(err)
		defer func() { ebmboost.HandleError(f.Close()) }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}

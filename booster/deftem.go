package booster

const deftem = `
import json
import pathlib

import pandas as pd
from torch_frame import TaskType, stype
from torch_frame.data import Dataset
from torch_frame.gbdt import LightGBM, XGBoost
from torch_frame.typing import Metric

################################################################################

PATH = {{ py .Pat }}
SEED = {{ .See }}

################################################################################

col_to_stype = {
{{- range $s := .Sty }}
    {{ py $s.Col }}: stype.{{ $s.Sty }},
{{- end }}
}

################################################################################

def read_frame(name):
  f = pd.read_csv(PATH + "/" + name + ".csv")

  for c, s in col_to_stype.items():
    if s == stype.timestamp and c in f:
      f[c] = pd.to_datetime(f[c])

  return f

################################################################################

def create_booster():
  booster = LightGBM if {{ py .Boo }} == "lgbm" else XGBoost
{{- if eq .Typ "binary_classification" }}
  return booster(TaskType.BINARY_CLASSIFICATION, num_classes=2, metric=Metric.{{ .Met }})
{{- else }}
  return booster(TaskType.REGRESSION, metric=Metric.{{ .Met }})
{{- end }}

################################################################################

tra_df = read_frame("tra")
val_df = read_frame("val")
tes_df = read_frame("tes")

################################################################################

print("materializing torch-frame dataset")
tra_ds = Dataset(tra_df, col_to_stype=col_to_stype, target_col={{ py .Tar }}).materialize()
val_tf = tra_ds.convert_to_tensor_frame(val_df)
tes_tf = tra_ds.convert_to_tensor_frame(tes_df)
print(f"train size: {tra_ds.tensor_frame.num_rows:,} x {tra_ds.tensor_frame.num_cols:,}")

################################################################################

gbdt = create_booster()

print("starting hparam tuning")
gbdt.tune(tf_train=tra_ds.tensor_frame, tf_val=val_tf, num_trials={{ .Tri }})
gbdt.save(PATH + "/model.json")

################################################################################

val_pre = gbdt.predict(tf_test=val_tf).numpy()
tes_pre = gbdt.predict(tf_test=tes_tf).numpy()

################################################################################

pathlib.Path(PATH).mkdir(exist_ok=True)
with open(PATH + "/pre.json", "w") as the_file:
    the_file.write(json.dumps({"val": val_pre.tolist(), "tes": tes_pre.tolist()}) + "\n")
`
